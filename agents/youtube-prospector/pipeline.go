package youtubeprospector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prospector/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrMissingCredential aborts a run before any external call is made.
	ErrMissingCredential = errors.New("missing scoring credential")
	// ErrInvalidRequest is returned when run parameters are out of range.
	ErrInvalidRequest = errors.New("invalid run request")
)

// searchHeadroom is how many raw hits are requested per candidate to analyze.
const searchHeadroom = 3

// Searcher finds candidate videos for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, timeout time.Duration) ([]models.CandidateRef, error)
}

// MetadataFetcher resolves one video URL into a canonical record.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (*models.CandidateRecord, error)
}

// Scorer produces the AI verdict for a record that passed every gate.
// It must always return a verdict, using a fallback on failure.
type Scorer interface {
	Score(ctx context.Context, record *models.CandidateRecord, lang string) models.ScoreVerdict
}

// ScorerFactory builds a scorer from a resolved credential.
type ScorerFactory func(ctx context.Context, credential string) (Scorer, error)

// RunRequest holds the parameters of a single prospecting run.
type RunRequest struct {
	Niche      string `validate:"required"`
	Language   string `validate:"oneof=fr en"`
	MaxAnalyze int    `validate:"min=1,max=100"`
	SubsMin    int64  `validate:"min=0"`
	SubsMax    int64  `validate:"gtefield=SubsMin"`
	Credential string
}

// Timeouts bounds each external call made by the pipeline.
type Timeouts struct {
	Search   time.Duration
	Metadata time.Duration
}

// Pipeline drives search, filtering and scoring for one niche at a time.
// Candidates are evaluated strictly one after another in search order.
type Pipeline struct {
	searcher    Searcher
	fetcher     MetadataFetcher
	newScorer   ScorerFactory
	reporter    Reporter
	timeouts    Timeouts
	recencyDays int
	validate    *validator.Validate
	now         func() time.Time
}

type PipelineConfig struct {
	Searcher      Searcher
	Fetcher       MetadataFetcher
	ScorerFactory ScorerFactory
	Reporter      Reporter
	Timeouts      Timeouts
	RecencyDays   int
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	timeouts := cfg.Timeouts
	if timeouts.Search <= 0 {
		timeouts.Search = 120 * time.Second
	}
	if timeouts.Metadata <= 0 {
		timeouts.Metadata = 30 * time.Second
	}
	recencyDays := cfg.RecencyDays
	if recencyDays <= 0 {
		recencyDays = 30
	}

	return &Pipeline{
		searcher:    cfg.Searcher,
		fetcher:     cfg.Fetcher,
		newScorer:   cfg.ScorerFactory,
		reporter:    reporter,
		timeouts:    timeouts,
		recencyDays: recencyDays,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// Run executes one prospecting pass. Only an invalid request or a missing
// credential is reported as an error; every per-candidate failure degrades
// to a skip, a rejection or a fallback verdict.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*models.RunResult, error) {
	if err := p.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Credential == "" {
		return nil, ErrMissingCredential
	}

	scorer, err := p.newScorer(ctx, req.Credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}

	result := &models.RunResult{
		RunID:      uuid.NewString(),
		Niche:      req.Niche,
		Language:   req.Language,
		StartedAt:  p.now(),
		Evaluated:  []models.EvaluatedCandidate{},
		Rejections: []models.Rejection{},
	}

	p.reporter.Notify(fmt.Sprintf("Starting prospector for %q (%s)", req.Niche, req.Language))
	p.reporter.Notify(fmt.Sprintf("Searching candidates (target: %d)...", req.MaxAnalyze))

	refs, err := p.searcher.Search(ctx, req.Niche, req.MaxAnalyze*searchHeadroom, p.timeouts.Search)
	if err != nil {
		p.reporter.Notify(fmt.Sprintf("Search failed: %v", err))
		refs = nil
	}
	p.reporter.Notify(fmt.Sprintf("Found %d raw videos", len(refs)))

	for _, ref := range refs {
		if len(result.Evaluated) >= req.MaxAnalyze {
			break
		}
		if evaluated, ok := p.evaluate(ctx, ref, req, scorer, result); ok {
			result.Evaluated = append(result.Evaluated, evaluated)
		}
	}

	result.Summary = models.RunSummary{
		TotalFound: len(refs),
		Analyzed:   len(result.Evaluated),
		Qualified:  len(result.Qualified()),
	}
	result.FinishedAt = p.now()

	p.reporter.Notify(fmt.Sprintf("Done: %d qualified leads out of %d analyzed", result.Summary.Qualified, result.Summary.Analyzed))
	return result, nil
}

// evaluate runs one candidate through fetch, recency, gates and scoring.
// Rejections are recorded on result; ok is true only for scored candidates.
func (p *Pipeline) evaluate(ctx context.Context, ref models.CandidateRef, req RunRequest, scorer Scorer, result *models.RunResult) (models.EvaluatedCandidate, bool) {
	record, err := p.fetcher.Fetch(ctx, ref.URL, p.timeouts.Metadata)
	if err != nil || record == nil {
		p.reporter.Notify(fmt.Sprintf("Skipping %s: metadata unavailable", ref.URL))
		return models.EvaluatedCandidate{}, false
	}

	displayDate := FormatUploadDate(record.UploadDate)

	if !isRecentAt(record.UploadDate, p.recencyDays, p.now()) {
		p.reject(result, record, ref, fmt.Sprintf("Too old (%s)", displayDate), []string{FlagTooOld})
		return models.EvaluatedCandidate{}, false
	}

	gate := Prequalify(record, req.SubsMin, req.SubsMax)
	if !gate.Passed {
		p.reject(result, record, ref, gate.Reason, gate.Flags)
		return models.EvaluatedCandidate{}, false
	}

	p.reporter.Notify(fmt.Sprintf("Running AI on: %s", record.Channel))
	verdict := scorer.Score(ctx, record, req.Language)

	flags := make([]string, 0, len(gate.Flags)+len(verdict.RedFlags))
	flags = append(flags, gate.Flags...)
	flags = append(flags, verdict.RedFlags...)
	verdict.RedFlags = flags

	status := "rejected"
	if verdict.NeedsEditor {
		status = "qualified"
	}
	p.reporter.Notify(fmt.Sprintf("Score %d (%s): %s", verdict.LeadScore, status, record.Channel))

	return models.EvaluatedCandidate{
		Record:      *record,
		Verdict:     verdict,
		SearchURL:   ref.URL,
		DisplayDate: displayDate,
	}, true
}

func (p *Pipeline) reject(result *models.RunResult, record *models.CandidateRecord, ref models.CandidateRef, reason string, flags []string) {
	channel := record.Channel
	if channel == "" {
		channel = "Unknown"
	}
	result.Rejections = append(result.Rejections, models.Rejection{
		Channel: channel,
		URL:     ref.URL,
		Reason:  reason,
		Flags:   flags,
	})
	p.reporter.Notify(fmt.Sprintf("Rejected %s: %s", channel, reason))
}
