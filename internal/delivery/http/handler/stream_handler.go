package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"uld-tracker/internal/delivery/ws"
	"uld-tracker/internal/middleware"
	"uld-tracker/internal/usecase/fleet"
	"uld-tracker/pkg/utils"
)

// StreamHandler upgrades to a websocket carrying every hub event published
// after the connection was accepted.
type StreamHandler struct {
	service  *fleet.Service
	upgrader *websocket.Upgrader
	buffer   int
}

func NewStreamHandler(service *fleet.Service, upgrader *websocket.Upgrader, buffer int) *StreamHandler {
	return &StreamHandler{service: service, upgrader: upgrader, buffer: buffer}
}

func (h *StreamHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/ws", h.Stream)
}

func (h *StreamHandler) Stream(c *gin.Context) {
	log := middleware.RequestLogger(c)

	sub, err := h.service.Subscribe(h.buffer)
	if err != nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sub.Close()
		log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	log.Info("WebSocket client connected", zap.Uint64("subscriber_id", sub.ID()))
	ws.NewClient(conn, sub, log).Serve()
	log.Info("WebSocket client disconnected", zap.Uint64("subscriber_id", sub.ID()))
}
