package system

import (
	"context"
	"time"
)

// ComponentStatus represents the status of system components
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

// HealthStatus represents system health status
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
}

// Check reports whether one component answers.
type Check func(ctx context.Context) bool

// Service probes registered components with a short per-probe deadline.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewService(checks map[string]Check) *Service {
	return &Service{
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// CheckHealth probes every component. Status is "ok" only when all
// components are up.
func (s *Service) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Status:     "ok",
		Components: make(map[string]ComponentStatus, len(s.checks)),
	}

	for name, check := range s.checks {
		probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		up := check(probeCtx)
		cancel()

		if up {
			status.Components[name] = StatusUp
		} else {
			status.Components[name] = StatusDown
			status.Status = "degraded"
		}
	}

	return status, nil
}
