package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uld-tracker/internal/domain/uld"
	"uld-tracker/internal/middleware"
	appErrors "uld-tracker/pkg/errors"
	"uld-tracker/pkg/utils"
)

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as a 500 without detail.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *uld.ValidationError
		appErr        *appErrors.AppError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.ErrorResponse(c, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, appErrors.ErrInvalidPatch):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &appErr) && appErr.Code == appErrors.CodeNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, appErr.Message)
	case errors.As(err, &appErr) && appErr.Code == appErrors.CodeConflict:
		utils.ErrorResponse(c, http.StatusConflict, appErr.Message)
	case errors.Is(err, appErrors.ErrForecastUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "forecast unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "request cancelled")
	default:
		_ = c.Error(err)
		middleware.RequestLogger(c).Error("Unhandled error", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
	}
}

// bindQuery binds and validates query parameters, answering 400 on failure.
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ValidationMessage(err))
		return false
	}
	return true
}
