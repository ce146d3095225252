package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "stock-service",
	})
}

// DependencyCheck probes one backing service.
type DependencyCheck func(ctx context.Context) error

// HealthHandler reports readiness of the database and optional backends.
type HealthHandler struct {
	checks map[string]DependencyCheck
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: make(map[string]DependencyCheck)}
}

// AddCheck registers a named dependency probe.
func (h *HealthHandler) AddCheck(name string, check DependencyCheck) {
	h.checks[name] = check
}

// Readiness runs every registered check. Any failure makes the service unready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = gin.H{"status": "unhealthy", "error": err.Error()}
			continue
		}
		checks[name] = gin.H{"status": "healthy"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": "stock-service",
		"checks":  checks,
	})
}
