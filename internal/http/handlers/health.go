package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping    func(ctx context.Context) error
	reports map[string]func() string
}

// ping may be nil, in which case the service reports ready as soon as it is up.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping, reports: map[string]func() string{}}
}

// Report adds a named component whose status is echoed by /readyz. Reported
// components never make the service unready.
func (h *HealthHandler) Report(name string, status func() string) *HealthHandler {
	h.reports[name] = status
	return h
}

func (h *HealthHandler) components() gin.H {
	out := gin.H{}
	for name, status := range h.reports {
		out[name] = status()
	}
	return out
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping != nil {
		c, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		defer cancel()

		if err := h.ping(c); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"error":      err.Error(),
				"components": h.components(),
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "components": h.components()})
}
