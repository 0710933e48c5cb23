package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"uld-tracker/internal/ingestion"
	"uld-tracker/internal/usecase/fleet"
	"uld-tracker/pkg/utils"
)

type HealthHandler struct {
	service   *fleet.Service
	ingestion *ingestion.Processor // nil when MQTT intake is disabled
	startedAt time.Time
}

func NewHealthHandler(service *fleet.Service, processor *ingestion.Processor) *HealthHandler {
	return &HealthHandler{
		service:   service,
		ingestion: processor,
		startedAt: time.Now(),
	}
}

func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"ulds":      len(h.service.AssetIDs()),
		"broadcast": h.service.HubStats(),
	}
	if h.ingestion != nil {
		body["ingestion"] = h.ingestion.GetMetrics()
	}

	utils.SuccessResponse(c, http.StatusOK, "Service is healthy", body)
}
