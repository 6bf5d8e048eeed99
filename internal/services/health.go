package services

import (
	"context"
	"sort"
	"time"
)

const healthTimeout = 3 * time.Second

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthResult is the health check response body.
type HealthResult struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// Healthy reports whether every dependency answered.
func (r *HealthResult) Healthy() bool {
	return r.Status == "healthy"
}

// HealthService implements the health service
type HealthService struct {
	service string
	version string
	checks  map[string]Pinger
}

// NewHealthService creates a new health service
func NewHealthService(service, version string, checks map[string]Pinger) *HealthService {
	return &HealthService{service: service, version: version, checks: checks}
}

// Check pings every dependency.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	result := &HealthResult{
		Status:  "healthy",
		Service: s.service,
		Version: s.version,
		Checks:  make(map[string]string, len(s.checks)),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name].Ping(ctx); err != nil {
			result.Checks[name] = "unavailable"
			result.Status = "degraded"
			continue
		}
		result.Checks[name] = "ok"
	}
	return result
}
