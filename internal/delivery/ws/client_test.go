package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uld-tracker/internal/broadcast"
)

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows any", nil, "https://evil.example", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed origin", []string{"https://ops.example"}, "https://ops.example", true},
		{"unlisted origin", []string{"https://ops.example"}, "https://evil.example", false},
		{"no origin header", []string{"https://ops.example"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, NewUpgrader(tt.allowed).CheckOrigin(req))
		})
	}
}

// serve upgrades every request onto a fresh subscription of hub.
func serve(t *testing.T, hub *broadcast.Hub, buffer int) *httptest.Server {
	upgrader := NewUpgrader(nil)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := hub.SubscribeWithBuffer(buffer)
		require.NoError(t, err)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			sub.Close()
			return
		}
		NewClient(conn, sub, nil).Serve()
	}))
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestClient_StreamsEvents(t *testing.T) {
	hub := broadcast.NewHub(8, nil)
	defer hub.Close()
	server := serve(t, hub, 8)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Stats().Subscribers == 1 }, time.Second, time.Millisecond)

	hub.Publish(broadcast.KindUnitUpdate, map[string]string{"id": "AKE12345CI"})
	hub.Publish(broadcast.KindAnalyticsUpdate, map[string]int{"totalULDs": 1})

	var got []broadcast.Event
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev broadcast.Event
		require.NoError(t, conn.ReadJSON(&ev))
		got = append(got, ev)
	}

	assert.Equal(t, broadcast.KindUnitUpdate, got[0].Kind)
	assert.Equal(t, broadcast.KindAnalyticsUpdate, got[1].Kind)
	assert.Less(t, got[0].Seq, got[1].Seq)
}

func TestClient_DroppedSubscriberIsClosed(t *testing.T) {
	hub := broadcast.NewHub(8, nil)
	defer hub.Close()
	server := serve(t, hub, 1)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Stats().Subscribers == 1 }, time.Second, time.Millisecond)

	// The peer is not reading, so once the socket buffers fill the write pump
	// blocks and the one-slot subscription overflows.
	for i := 0; i < 1000 && hub.Stats().Dropped == 0; i++ {
		hub.Publish(broadcast.KindUnitUpdate, strings.Repeat("x", 1<<16))
	}
	require.Equal(t, uint64(1), hub.Stats().Dropped)

	var closeErr *websocket.CloseError
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		require.ErrorAs(t, err, &closeErr)
		break
	}
	assert.Equal(t, websocket.CloseTryAgainLater, closeErr.Code)
}

func TestClient_PeerCloseEndsSubscription(t *testing.T) {
	hub := broadcast.NewHub(8, nil)
	defer hub.Close()
	server := serve(t, hub, 8)
	defer server.Close()

	conn := dial(t, server)
	require.Eventually(t, func() bool { return hub.Stats().Subscribers == 1 }, time.Second, time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Stats().Subscribers == 0 }, time.Second, 5*time.Millisecond)
}

func TestClient_HubShutdownSendsGoingAway(t *testing.T) {
	hub := broadcast.NewHub(8, nil)
	server := serve(t, hub, 8)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Stats().Subscribers == 1 }, time.Second, time.Millisecond)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
}
