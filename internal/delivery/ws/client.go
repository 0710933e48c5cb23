package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"uld-tracker/internal/broadcast"
	appErrors "uld-tracker/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 512
)

// Client connects one websocket to one hub subscription. The browser only
// listens; anything it sends is read and discarded so control frames are
// processed.
type Client struct {
	conn *websocket.Conn
	sub  *broadcast.Subscription
	log  *zap.Logger
}

func NewClient(conn *websocket.Conn, sub *broadcast.Subscription, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		conn: conn,
		sub:  sub,
		log: log.With(
			zap.Uint64("subscriber_id", sub.ID()),
			zap.String("remote_addr", conn.RemoteAddr().String()),
		),
	}
}

// Serve runs both pumps and returns once the connection is finished.
func (c *Client) Serve() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.WritePump()
	}()
	c.ReadPump()
	<-done
}

// ReadPump ends the subscription when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.sub.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

// WritePump sends every event as its own JSON text frame. When the hub drops
// the subscription the peer gets a try-again-later close frame; on shutdown it
// gets going-away.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sub.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.sub.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, closeMessage(c.sub.Err()))
				return
			}

			payload, err := json.Marshal(ev)
			if err != nil {
				c.log.Error("Failed to encode event", zap.Uint64("seq", ev.Seq), zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("WebSocket write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("WebSocket ping error", zap.Error(err))
				return
			}
		}
	}
}

func closeMessage(reason error) []byte {
	if errors.Is(reason, appErrors.ErrHubClosed) {
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	}
	return websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber fell behind")
}

// NewUpgrader accepts origins from allowed; "*" or an empty list allows any.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[o] = struct{}{}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			_, ok := set[origin]
			return ok
		},
	}
}
