package youtubeprospector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"prospector/agents/youtube-prospector/youtube"
	"prospector/agents/youtube-prospector/ytdlp"
	"prospector/internal/models"
	"prospector/shared/ai"
	"prospector/shared/config"
	"prospector/shared/email"
	"prospector/shared/scheduler"
	"prospector/shared/storage"
)

// ProspectorMetrics summarizes one scheduled pass over the configured niches
type ProspectorMetrics struct {
	Niches    int      `json:"niches"`
	Found     int      `json:"found"`
	Analyzed  int      `json:"analyzed"`
	Qualified int      `json:"qualified"`
	Rejected  int      `json:"rejected"`
	Exports   []string `json:"exports,omitempty"`
	EmailSent bool     `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m ProspectorMetrics) GetSummary() string {
	summary := fmt.Sprintf("searched %d niches, found %d videos, analyzed %d, qualified %d leads",
		m.Niches, m.Found, m.Analyzed, m.Qualified)
	if m.EmailSent {
		summary += ", digest sent"
	}
	return summary
}

func (m *ProspectorMetrics) add(result *models.RunResult) {
	m.Niches++
	m.Found += result.Summary.TotalFound
	m.Analyzed += result.Summary.Analyzed
	m.Qualified += result.Summary.Qualified
	m.Rejected += len(result.Rejections)
}

// ReportSender delivers the lead digest.
type ReportSender interface {
	SendReport(report *models.LeadReport) error
}

type backend interface {
	Searcher
	MetadataFetcher
}

// ProspectorAgent implements the scheduler.Agent interface
type ProspectorAgent struct {
	config      *config.Config
	pipeline    *Pipeline
	exports     *storage.ExportStore
	emailSender ReportSender
	reporter    Reporter
}

func NewProspectorAgent(cfg *config.Config) *ProspectorAgent {
	return &ProspectorAgent{
		config:   cfg,
		reporter: LogReporter{},
	}
}

// WithReporter replaces the progress reporter. It must be called before Initialize.
func (a *ProspectorAgent) WithReporter(r Reporter) *ProspectorAgent {
	a.reporter = r
	return a
}

func (a *ProspectorAgent) Name() string {
	return "YouTube Prospector"
}

func (a *ProspectorAgent) Initialize() error {
	slog.Info("initializing agent", slog.String("agent", a.Name()), slog.String("backend", a.config.Search.Backend))

	if a.pipeline == nil {
		b, err := a.newBackend(context.Background())
		if err != nil {
			return fmt.Errorf("failed to create %s search backend: %w", a.config.Search.Backend, err)
		}
		a.pipeline = NewPipeline(PipelineConfig{
			Searcher:      b,
			Fetcher:       b,
			ScorerFactory: a.newScorer,
			Reporter:      a.reporter,
			Timeouts: Timeouts{
				Search:   a.config.Search.SearchTimeout,
				Metadata: a.config.Search.MetadataTimeout,
			},
			RecencyDays: a.config.Prospector.RecencyDays,
		})
	}

	if a.exports == nil {
		store, err := storage.NewExportStore(a.config.Export.Dir)
		if err != nil {
			return fmt.Errorf("failed to create export store: %w", err)
		}
		a.exports = store
	}

	if a.emailSender == nil && a.config.Email.Enabled() {
		a.emailSender = email.NewSender(&a.config.Email)
		slog.Info("email digest enabled", slog.String("to", a.config.Email.ToEmail))
	}

	return nil
}

func (a *ProspectorAgent) newBackend(ctx context.Context) (backend, error) {
	switch a.config.Search.Backend {
	case "youtube":
		client, err := youtube.NewClient(ctx, &a.config.YouTube, a.config.Prospector.RecencyDays)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return ytdlp.NewClient(&a.config.Search, a.config.Prospector.RecencyDays), nil
	}
}

func (a *ProspectorAgent) newScorer(ctx context.Context, credential string) (Scorer, error) {
	reasoner, err := ai.NewGeminiReasoner(ctx, credential)
	if err != nil {
		return nil, err
	}
	return ai.NewScorer(reasoner, ai.DefaultsFromConfig(a.config.AI)), nil
}

// Prospect runs the pipeline once. An empty credential is resolved from the
// environment, the config and the secrets store, in that order.
func (a *ProspectorAgent) Prospect(ctx context.Context, req RunRequest) (*models.RunResult, error) {
	if key, ok := config.ResolveAPIKey(req.Credential, a.config); ok {
		req.Credential = key
	}
	return a.pipeline.Run(ctx, req)
}

// Export persists the lead table of a run together with its manifest.
func (a *ProspectorAgent) Export(result *models.RunResult) (string, error) {
	table, err := ToTable(result.Evaluated, result.Niche, result.StartedAt)
	if err != nil {
		return "", err
	}
	path, err := a.exports.Save(result.Niche, table)
	if err != nil {
		return "", fmt.Errorf("failed to save lead table: %w", err)
	}
	if _, err := a.exports.SaveManifest(path, result); err != nil {
		return path, fmt.Errorf("failed to save run manifest: %w", err)
	}
	return path, nil
}

// RequestFor builds a run request for niche from the configured defaults.
func (a *ProspectorAgent) RequestFor(niche string) RunRequest {
	p := a.config.Prospector
	return RunRequest{
		Niche:      niche,
		Language:   p.Language,
		MaxAnalyze: p.MaxAnalyze,
		SubsMin:    p.SubsMin,
		SubsMax:    p.SubsMax,
	}
}

// RunOnce prospects every configured niche. Each niche is an independent run;
// a failed export or digest is a partial failure, a missing credential is critical.
func (a *ProspectorAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := ProspectorMetrics{}

	credential, ok := config.ResolveAPIKey("", a.config)
	if !ok {
		err := fmt.Errorf("%w: set %s or add it to %s", ErrMissingCredential, config.GeminiKeyName, a.config.AI.SecretsFile)
		criticalFailure(events, err, time.Since(startTime))
		return err
	}

	niches := a.config.Prospector.Niches
	if len(niches) == 0 {
		err := errors.New("no niches configured (prospector.niches)")
		criticalFailure(events, err, time.Since(startTime))
		return err
	}

	var runs []*models.RunResult
	var partial []error

	for _, niche := range niches {
		if err := ctx.Err(); err != nil {
			return err
		}

		req := a.RequestFor(niche)
		req.Credential = credential

		result, err := a.Prospect(ctx, req)
		if err != nil {
			if errors.Is(err, ErrMissingCredential) {
				criticalFailure(events, err, time.Since(startTime))
				return err
			}
			partial = append(partial, fmt.Errorf("niche %q: %w", niche, err))
			continue
		}

		runs = append(runs, result)
		metrics.add(result)

		path, err := a.Export(result)
		if err != nil {
			partial = append(partial, fmt.Errorf("niche %q: %w", niche, err))
		}
		if path != "" {
			metrics.Exports = append(metrics.Exports, path)
		}

		slog.Info("niche complete",
			slog.String("niche", niche),
			slog.String("run_id", result.RunID),
			slog.Int("found", result.Summary.TotalFound),
			slog.Int("analyzed", result.Summary.Analyzed),
			slog.Int("qualified", result.Summary.Qualified),
			slog.Int("rejected", len(result.Rejections)))
	}

	if len(runs) == 0 {
		err := fmt.Errorf("every niche failed: %w", errors.Join(partial...))
		criticalFailure(events, err, time.Since(startTime))
		return err
	}

	if a.emailSender != nil {
		report := models.NewLeadReport(time.Now(), runs)
		if report.Qualified > 0 {
			if err := a.emailSender.SendReport(report); err != nil {
				partial = append(partial, fmt.Errorf("failed to send lead digest: %w", err))
			} else {
				metrics.EmailSent = true
			}
		}
	}

	duration := time.Since(startTime)
	if len(partial) > 0 && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(errors.Join(partial...), duration)
	}
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	return nil
}

func criticalFailure(events *scheduler.AgentEvents, err error, duration time.Duration) {
	if events != nil && events.OnCriticalFailure != nil {
		events.OnCriticalFailure(err, duration)
	}
}
