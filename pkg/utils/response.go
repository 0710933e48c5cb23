package utils

import (
	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListResponse is SuccessResponse for collections; count is the number of items in data.
func ListResponse(c *gin.Context, status int, message string, data any, count int) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Count:   &count,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   message,
	})
}
