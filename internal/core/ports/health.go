//go:generate mockgen -source=health.go -destination=mocks/mock_health.go -package=mocks

package ports

import (
	"context"
	"time"
)

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// DependencyStatus is the check outcome for one dependency.
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport is a point-in-time liveness snapshot of the store and cache.
type HealthReport struct {
	Status       string                      `json:"status"`
	Store        bool                        `json:"database"`
	Cache        bool                        `json:"redis"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	Timestamp    time.Time                   `json:"timestamp"`
}

// Healthy reports whether every checked dependency responded.
func (r HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}
