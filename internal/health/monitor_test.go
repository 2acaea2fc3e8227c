package health

import (
	"context"
	"errors"
	"testing"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Health(ctx context.Context) error { return p.err }

func TestCheckHealth(t *testing.T) {
	m := NewMonitor()
	m.Register("database", &stubPinger{}, true)
	m.Register("redis", &stubPinger{err: errors.New("dial refused")}, false)

	report := m.CheckHealth(context.Background())
	if len(report) != 2 {
		t.Fatalf("report has %d components, want 2", len(report))
	}
	if report["database"].Status != StatusHealthy {
		t.Errorf("database status = %s", report["database"].Status)
	}
	if report["redis"].Status != StatusDegraded {
		t.Errorf("redis status = %s", report["redis"].Status)
	}
	if report["redis"].Error == "" {
		t.Error("redis error not reported")
	}
}

func TestCheckHealth_Cached(t *testing.T) {
	m := NewMonitor()
	p := &stubPinger{}
	m.Register("database", p, true)

	first := m.CheckHealth(context.Background())
	if first["database"].Status != StatusHealthy {
		t.Fatalf("database status = %s", first["database"].Status)
	}

	// Within the cache window the stale result is served.
	p.err = errors.New("down")
	second := m.CheckHealth(context.Background())
	if second["database"].Status != StatusHealthy {
		t.Errorf("cached status = %s, want healthy", second["database"].Status)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name   string
		report map[string]ComponentHealth
		expect Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]ComponentHealth{
			"a": {Status: StatusHealthy},
		}, StatusHealthy},
		{"degraded wins over healthy", map[string]ComponentHealth{
			"a": {Status: StatusHealthy},
			"b": {Status: StatusDegraded},
		}, StatusDegraded},
		{"critical wins over degraded", map[string]ComponentHealth{
			"a": {Status: StatusDegraded},
			"b": {Status: StatusCritical},
		}, StatusCritical},
	}

	for _, tt := range tests {
		if got := Overall(tt.report); got != tt.expect {
			t.Errorf("%s: Overall = %s, want %s", tt.name, got, tt.expect)
		}
	}
}
