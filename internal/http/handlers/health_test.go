package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/http/handlers"
	"github.com/itechteam/formdesk/internal/http/middlewares"
)

type readyBody struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func healthRouter(h *handlers.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.GET("/readyz", h.Readyz)
	r.GET("/missing", func(ctx *gin.Context) { handlers.RespondNotFound(ctx, "nope") })
	return r
}

func TestReadyz_ReportsComponents(t *testing.T) {
	state := "closed"
	h := handlers.NewHealthHandler(nil).Report("notifier", func() string { return state })
	r := healthRouter(h)

	w := doJSON(t, r, http.MethodGet, "/readyz", "")
	var body readyBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || body.Status != "ready" || body.Components["notifier"] != "closed" {
		t.Fatalf("unexpected readiness %d %+v", w.Code, body)
	}

	// an open breaker is reported without failing readiness
	state = "open"
	w = doJSON(t, r, http.MethodGet, "/readyz", "")
	body = readyBody{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusOK || body.Components["notifier"] != "open" {
		t.Fatalf("unexpected readiness %d %+v", w.Code, body)
	}
}

func TestReadyz_PingFailureIs503(t *testing.T) {
	h := handlers.NewHealthHandler(func(context.Context) error { return errors.New("db down") })

	w := doJSON(t, healthRouter(h), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", w.Code)
	}
}

func TestRespondError_EchoesRequestID(t *testing.T) {
	w := doJSON(t, healthRouter(handlers.NewHealthHandler(nil)), http.MethodGet, "/missing", "", "X-Request-Id", "req-42")

	env := decodeError(t, w)
	if w.Code != http.StatusNotFound || env.Error.Code != "not_found" || env.Error.RequestID != "req-42" {
		t.Fatalf("unexpected error response %d %+v", w.Code, env.Error)
	}
}
