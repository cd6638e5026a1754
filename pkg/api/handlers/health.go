package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/models"
	"github.com/labstack/echo/v4"
)

// Pinger is a dependency whose reachability is reported by the health check
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a new health handler. Each entry of checks is pinged
// on every request.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health godoc
// @Summary Health check
// @Description Pings the database and cache. Returns 503 when any of them is unreachable.
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	resp := models.HealthResponse{Status: "ok", Services: map[string]string{}}

	for name, p := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			resp.Status = "degraded"
			resp.Services[name] = "unavailable"
			continue
		}
		resp.Services[name] = "ok"
	}

	if resp.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
