package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	names  []string
	checks map[string]Check
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: make(map[string]Check)}
}

// Register adds a readiness check. Checks run in registration order.
func (h *HealthHandler) Register(name string, check Check) *HealthHandler {
	h.names = append(h.names, name)
	h.checks[name] = check
	return h
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	body := gin.H{"status": "ok"}
	for _, name := range h.names {
		if err := h.checks[name](ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", name: "unavailable"})
			return
		}
		body[name] = "connected"
	}
	c.JSON(http.StatusOK, body)
}
