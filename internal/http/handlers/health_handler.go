package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc проверяет одну зависимость.
type PingFunc func(ctx context.Context) error

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	checks  map[string]PingFunc
	timeout time.Duration
}

func NewHealthHandler(checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 5 * time.Second}
}

type HealthResponse struct {
	Success   bool              `json:"success"`
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	status := "healthy"
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			status = "unhealthy"
			continue
		}
		checks[name] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Success:   status == "healthy",
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}
