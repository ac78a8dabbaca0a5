package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prospector/shared/config"
	"prospector/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler runs one agent on a cron schedule and reports each run to the monitor.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	agent   Agent
	cron    *cron.Cron
}

func New(cfg *config.Config, agent Agent) *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))

	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(),
		agent:   agent,
		// Prevent overlapping runs
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
		),
	}
}

func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			slog.Error("scheduled run failed", slog.String("agent", s.agent.Name()), slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, s.config.Monitoring.HealthPort)
	healthServer.Start()

	slog.Info("scheduler started", slog.String("agent", s.agent.Name()), slog.String("schedule", s.config.Schedule))
	s.cron.Start()

	<-ctx.Done()
	slog.Info("scheduler stopping", slog.String("agent", s.agent.Name()))

	// Wait for a run in progress before shutting the health endpoint down
	<-s.cron.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("health server shutdown failed", slog.Any("error", err))
	}
	return ctx.Err()
}

// RunOnce executes the agent a single time, wiring its events to the monitor.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	slog.Info("starting run", slog.String("agent", agentName))

	reported := false
	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			reported = true
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			reported = true
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		if !reported {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), time.Since(startTime))
		}
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
