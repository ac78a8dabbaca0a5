package ai

import (
	"context"
	"log/slog"

	"prospector/internal/models"

	"golang.org/x/time/rate"
)

// Scorer builds scoring prompts, calls the reasoner and interprets its answer.
// It never returns an error: failures become the fallback verdict.
type Scorer struct {
	reasoner Reasoner
	defaults RequestDefaults
	limiter  *rate.Limiter
}

func NewScorer(reasoner Reasoner, defaults RequestDefaults) *Scorer {
	s := &Scorer{
		reasoner: reasoner,
		defaults: defaults,
	}
	if defaults.MinInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(defaults.MinInterval), 1)
	}
	return s
}

// Score evaluates one candidate record. The external call is made at most once.
func (s *Scorer) Score(ctx context.Context, record *models.CandidateRecord, lang string) models.ScoreVerdict {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			slog.Warn("scoring pacing interrupted", slog.String("channel", record.Channel), slog.Any("error", err))
			return FallbackVerdict(lang, FlagLLMError)
		}
	}

	raw, err := s.reasoner.Complete(ctx, Request{
		Prompt:      BuildScoringPrompt(record, lang),
		Model:       s.defaults.Model,
		Temperature: s.defaults.Temperature,
		Timeout:     s.defaults.Timeout,
	})
	if err != nil {
		slog.Warn("scoring call failed", slog.String("channel", record.Channel), slog.Any("error", err))
		return FallbackVerdict(lang, FlagLLMError)
	}

	verdict, err := ParseScoreResponse(raw, lang)
	if err != nil {
		slog.Warn("scoring response rejected", slog.String("channel", record.Channel), slog.Any("error", err))
		return FallbackVerdict(lang, FlagJSONInvalid)
	}
	return verdict
}
