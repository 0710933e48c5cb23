package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uld-tracker/pkg/utils"
)

// Telemetry reports are a few hundred bytes; anything near this is a mistake.
const DefaultMaxRequestSize = 64 << 10

func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
