package routes

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uld-tracker/internal/alerting"
	"uld-tracker/internal/broadcast"
	"uld-tracker/internal/config"
	"uld-tracker/internal/forecast"
	"uld-tracker/internal/infrastructure/memory"
	"uld-tracker/internal/metrics"
	"uld-tracker/internal/middleware"
	"uld-tracker/internal/usecase/fleet"
)

func newRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewULDRepository()
	require.NoError(t, memory.SeedFleet(repo, 5, rand.New(rand.NewSource(1)), time.Now()))

	hub := broadcast.NewHub(8, nil)
	t.Cleanup(hub.Close)

	service := fleet.NewService(fleet.Dependencies{
		ULDs:       repo,
		Alerts:     memory.NewAlertRepository(10),
		Engine:     alerting.NewEngine(alerting.DefaultThresholds()),
		Hub:        hub,
		Forecaster: forecast.NewRandomForecaster(rand.New(rand.NewSource(2))),
	})

	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "test"},
		Broadcast: config.BroadcastConfig{SubscriberBuffer: 8},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://ops.example"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600,
		},
	}

	return SetupRoutes(cfg, Dependencies{Fleet: service, Metrics: metrics.New(), RateLimiter: limiter})
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSetupRoutes(t *testing.T) {
	r := newRouter(t, nil)

	tests := []struct {
		target string
		want   int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/ulds", http.StatusOK},
		{"/api/alerts", http.StatusOK},
		{"/api/analytics/dashboard", http.StatusOK},
		{"/api/predictions", http.StatusOK},
		{"/api/shipments", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(r, tt.target)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestSetupRoutes_CORS(t *testing.T) {
	r := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/ulds", nil)
	req.Header.Set("Origin", "https://ops.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ops.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/ulds", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSetupRoutes_RateLimited(t *testing.T) {
	r := newRouter(t, middleware.NewRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusOK, get(r, "/api/ulds").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/ulds").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/ulds").Code)
}
