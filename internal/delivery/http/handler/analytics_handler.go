package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uld-tracker/internal/usecase/fleet"
	"uld-tracker/pkg/utils"
)

type AnalyticsHandler struct {
	service *fleet.Service
}

func NewAnalyticsHandler(service *fleet.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/analytics/dashboard", h.Dashboard)
	router.GET("/predictions", h.Predictions)
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Analytics retrieved successfully", h.service.GetAnalyticsSnapshot())
}

func (h *AnalyticsHandler) Predictions(c *gin.Context) {
	f, err := h.service.Forecast(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Predictions retrieved successfully", f)
}
