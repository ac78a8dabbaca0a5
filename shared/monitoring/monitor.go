package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the monitor state.
type Snapshot struct {
	Healthy         bool      `json:"healthy"`
	LastRunTime     time.Time `json:"last_run_time,omitempty"`
	LastRunSuccess  bool      `json:"last_run_success"`
	LastSummary     string    `json:"last_summary,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	Runs            int       `json:"runs"`
	PartialFailures int       `json:"partial_failures"`
	Failures        int       `json:"failures"`
}

type Monitor struct {
	mu              sync.RWMutex
	lastRunSuccess  bool
	lastRunTime     time.Time
	lastSummary     string
	lastError       string
	runs            int
	partialFailures int
	failures        int
	now             func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = m.now()
	m.lastSummary = summary
	m.lastError = ""
	m.runs++
	m.mu.Unlock()

	slog.Info("run completed", slog.String("summary", summary), slog.Duration("duration", duration))
}

// RecordPartialFailure does not change the health status.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partialFailures++
	m.lastError = err.Error()
	m.mu.Unlock()

	slog.Warn("partial failure", slog.Any("error", err), slog.Duration("duration", duration))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = m.now()
	m.lastError = err.Error()
	m.runs++
	m.failures++
	m.mu.Unlock()

	slog.Error("critical failure", slog.Any("error", err), slog.Duration("duration", duration))
}

// IsHealthy is true before the first run and after any successful run.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthyLocked()
}

func (m *Monitor) healthyLocked() bool {
	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Healthy:         m.healthyLocked(),
		LastRunTime:     m.lastRunTime,
		LastRunSuccess:  m.lastRunSuccess,
		LastSummary:     m.lastSummary,
		LastError:       m.lastError,
		Runs:            m.runs,
		PartialFailures: m.partialFailures,
		Failures:        m.failures,
	}
}
