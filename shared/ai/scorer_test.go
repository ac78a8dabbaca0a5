package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"prospector/internal/models"
	"prospector/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockReasoner implements Reasoner for testing
type MockReasoner struct {
	CompleteFunc func(ctx context.Context, req Request) (string, error)
	Requests     []Request
}

func (m *MockReasoner) Complete(ctx context.Context, req Request) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return validResponse, nil
}

func int64Ptr(v int64) *int64 { return &v }

func testRecord() *models.CandidateRecord {
	return &models.CandidateRecord{
		Channel:         "Solo Trader",
		Title:           "My crypto week",
		URL:             "https://www.youtube.com/watch?v=abc123def45",
		Description:     "Weekly vlog about my portfolio",
		ViewCount:       4200,
		DurationSeconds: 840,
		UploadDate:      "20261001",
		SubscriberCount: int64Ptr(12000),
	}
}

func TestScorer_Success(t *testing.T) {
	reasoner := &MockReasoner{}
	scorer := NewScorer(reasoner, RequestDefaults{Model: "test-model", Temperature: 0.1, Timeout: time.Second})

	verdict := scorer.Score(context.Background(), testRecord(), "en")

	assert.Equal(t, 82, verdict.LeadScore)
	assert.True(t, verdict.NeedsEditor)
	require.Len(t, reasoner.Requests, 1)
	req := reasoner.Requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, float32(0.1), req.Temperature)
	assert.Equal(t, time.Second, req.Timeout)
	assert.Contains(t, req.Prompt, "Solo Trader")
}

func TestScorer_FallbackOnBadOutput(t *testing.T) {
	outputs := []string{"", "I cannot help with that.", "```json\n{\"lead_score\": 9"}

	for _, out := range outputs {
		reasoner := &MockReasoner{CompleteFunc: func(context.Context, Request) (string, error) { return out, nil }}
		verdict := NewScorer(reasoner, RequestDefaults{}).Score(context.Background(), testRecord(), "fr")

		assert.Equal(t, FallbackVerdict("fr", FlagJSONInvalid), verdict, "output %q", out)
		assert.Len(t, verdict.RedFlags, 1)
		assert.Len(t, reasoner.Requests, 1, "no retry on malformed output")
	}
}

func TestScorer_FallbackOnCallError(t *testing.T) {
	reasoner := &MockReasoner{CompleteFunc: func(context.Context, Request) (string, error) {
		return "", context.DeadlineExceeded
	}}

	verdict := NewScorer(reasoner, RequestDefaults{}).Score(context.Background(), testRecord(), "fr")

	assert.Equal(t, []string{FlagLLMError}, verdict.RedFlags)
	assert.False(t, verdict.NeedsEditor)
	assert.Len(t, reasoner.Requests, 1, "no retry on call failure")
}

func TestScorer_PacingRespectsCancellation(t *testing.T) {
	reasoner := &MockReasoner{}
	scorer := NewScorer(reasoner, RequestDefaults{MinInterval: time.Hour})

	first := scorer.Score(context.Background(), testRecord(), "fr")
	assert.Equal(t, 82, first.LeadScore)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := scorer.Score(ctx, testRecord(), "fr")

	assert.Equal(t, []string{FlagLLMError}, second.RedFlags)
	assert.Len(t, reasoner.Requests, 1)
}

func TestBuildScoringPrompt(t *testing.T) {
	record := testRecord()
	prompt := BuildScoringPrompt(record, "en")

	for _, want := range []string{
		"- Channel: Solo Trader",
		"- Video: My crypto week",
		"- Duration: 840s",
		"- Views: 4200",
		"- Subscribers: 12000",
		"- Upload date: 20261001",
		"+20 pts: Solo creator",
		"-50 pts: Subscribers >= 500k",
		"MAX CAP 60: if subscribers >= 200k.",
		"MAX CAP 50",
		"needs_editor = true ONLY if lead_score >= 70",
		"Write the prospecting message in ENGLISH.",
		`"language_version": "en"`,
		"Respond ONLY with the JSON",
	} {
		assert.Contains(t, prompt, want)
	}

	assert.Equal(t, prompt, BuildScoringPrompt(record, "en"), "prompt must be deterministic")
}

func TestBuildScoringPrompt_UnknownSubscribersAndFraming(t *testing.T) {
	record := testRecord()
	record.SubscriberCount = nil

	prompt := BuildScoringPrompt(record, "fr")
	assert.Contains(t, prompt, "- Subscribers: unknown")
	assert.Contains(t, prompt, "FRANÇAIS")

	assert.Contains(t, BuildScoringPrompt(record, "de"), "FRANÇAIS", "unknown tags use the French framing")
}

func TestBuildScoringPrompt_DescriptionExcerpt(t *testing.T) {
	record := testRecord()
	record.Description = strings.Repeat("é", 600) + "TAIL"

	prompt := BuildScoringPrompt(record, "en")
	assert.Contains(t, prompt, strings.Repeat("é", 600)+"...")
	assert.NotContains(t, prompt, "TAIL")
}

func TestGeminiReasoner_RequiresKey(t *testing.T) {
	_, err := NewGeminiReasoner(context.Background(), "")
	assert.Error(t, err)
}

func TestDefaultsFromConfig(t *testing.T) {
	defaults := DefaultsFromConfig(config.AIConfig{
		Model:       "gemini-2.5-flash",
		Temperature: 0.2,
		Timeout:     30 * time.Second,
		MinInterval: time.Second,
	})

	assert.Equal(t, RequestDefaults{
		Model:       "gemini-2.5-flash",
		Temperature: 0.2,
		Timeout:     30 * time.Second,
		MinInterval: time.Second,
	}, defaults)
}
