package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uld-tracker/internal/usecase/fleet"
	"uld-tracker/pkg/utils"
)

type ULDHandler struct {
	service *fleet.Service
}

func NewULDHandler(service *fleet.Service) *ULDHandler {
	return &ULDHandler{service: service}
}

func (h *ULDHandler) RegisterRoutes(router *gin.RouterGroup) {
	ulds := router.Group("/ulds")
	{
		ulds.GET("", h.ListULDs)
		ulds.GET("/:id", h.GetULD)
		ulds.POST("/:id/location", h.ReportTelemetry)
	}
}

func (h *ULDHandler) ListULDs(c *gin.Context) {
	var filter fleet.ListULDsRequest
	if !bindQuery(c, &filter) {
		return
	}

	ulds := h.service.FindAssets(&filter)
	utils.ListResponse(c, http.StatusOK, "ULDs retrieved successfully", ulds, len(ulds))
}

func (h *ULDHandler) GetULD(c *gin.Context) {
	u, err := h.service.GetAsset(utils.SanitizeID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "ULD retrieved successfully", u)
}

// ReportTelemetry applies a device report: any of location, sensors, status.
func (h *ULDHandler) ReportTelemetry(c *gin.Context) {
	var req fleet.ReportTelemetryRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ValidationMessage(err))
		return
	}

	u, err := h.service.ReportTelemetry(c.Request.Context(), utils.SanitizeID(c.Param("id")), req.ToPatch())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "ULD updated successfully", u)
}
