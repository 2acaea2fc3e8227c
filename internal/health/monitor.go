package health

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Pinger is anything that can report whether it is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

// ComponentHealth is the probe result for one dependency.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
}

type component struct {
	pinger   Pinger
	critical bool
}

// Monitor aggregates health status from registered dependencies.
type Monitor struct {
	mu         sync.Mutex
	components map[string]component
	lastCheck  time.Time
	lastReport map[string]ComponentHealth
}

// NewMonitor creates an empty health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		components: make(map[string]component),
		lastReport: make(map[string]ComponentHealth),
	}
}

// Register adds a dependency probe. Critical components take the overall
// status to critical when down; others only degrade it.
func (m *Monitor) Register(name string, p Pinger, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = component{pinger: p, critical: critical}
}

// CheckHealth probes every registered dependency. Results are cached
// briefly to avoid hammering dependencies from a polled endpoint.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ComponentHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]ComponentHealth)
	for name, c := range m.components {
		h := ComponentHealth{Component: name, Status: StatusHealthy}
		if err := c.pinger.Health(ctx); err != nil {
			h.Error = err.Error()
			if c.critical {
				h.Status = StatusCritical
			} else {
				h.Status = StatusDegraded
			}
		}
		report[name] = h
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

// Overall collapses a report into a single status (worst case wins).
func Overall(report map[string]ComponentHealth) Status {
	status := StatusHealthy
	for _, c := range report {
		if c.Status == StatusCritical {
			return StatusCritical
		}
		if c.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
