package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uld-tracker/internal/usecase/fleet"
	"uld-tracker/pkg/utils"
)

type AlertHandler struct {
	service *fleet.Service
}

func NewAlertHandler(service *fleet.Service) *AlertHandler {
	return &AlertHandler{service: service}
}

func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/alerts", h.ListAlerts)
}

// ListAlerts returns retained alerts newest first; ?limit= defaults to 100.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	var req fleet.AlertsRequest
	if !bindQuery(c, &req) {
		return
	}

	alerts := h.service.GetAlerts(req.Limit)
	utils.ListResponse(c, http.StatusOK, "Alerts retrieved successfully", alerts, len(alerts))
}
