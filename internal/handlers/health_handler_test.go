package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"stratalpha/internal/cache"
	"stratalpha/internal/services"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func setupHealthRouter(p Pinger, hist services.HistoryServicer) *gin.Engine {
	r := gin.New()
	r.GET("/health", NewHealthHandler(p, cache.NewMemoryCache(), hist).GetHealth)
	return r
}

func TestHealthHandler_GetHealth(t *testing.T) {
	t.Run("ok when all checks pass", func(t *testing.T) {
		hist := &mockHistoryService{
			apiStatsFn: func(time.Time) (*services.APICallStats, error) {
				return &services.APICallStats{TotalCalls: 10, SuccessRate: 1}, nil
			},
		}
		w := getPath(t, setupHealthRouter(stubPinger{}, hist), "/health")

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"status":"ok"`) {
			t.Errorf("expected ok status: %s", w.Body.String())
		}
	})

	t.Run("degraded when database is down", func(t *testing.T) {
		w := getPath(t, setupHealthRouter(stubPinger{err: errors.New("connection refused")}, &mockHistoryService{}), "/health")

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"status":"degraded"`) {
			t.Errorf("expected degraded status: %s", w.Body.String())
		}
	})
}
