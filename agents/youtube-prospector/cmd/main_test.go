package main

import (
	"bytes"
	"log/slog"
	"testing"

	youtubeprospector "prospector/agents/youtube-prospector"
	"prospector/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRunFlags(t *testing.T) {
	base := youtubeprospector.RunRequest{
		Niche:      "crypto trading",
		Language:   "fr",
		MaxAnalyze: 10,
		SubsMin:    1000,
		SubsMax:    150000,
	}

	tests := []struct {
		name    string
		lang    string
		max     int
		subsMin int64
		subsMax int64
		apiKey  string
		want    youtubeprospector.RunRequest
	}{
		{
			name:    "nothing set keeps config",
			subsMin: -1,
			subsMax: -1,
			want:    base,
		},
		{
			name:    "every flag set",
			lang:    "en",
			max:     25,
			subsMin: 0,
			subsMax: 50000,
			apiKey:  "key",
			want: youtubeprospector.RunRequest{
				Niche:      "crypto trading",
				Language:   "en",
				MaxAnalyze: 25,
				SubsMin:    0,
				SubsMax:    50000,
				Credential: "key",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyRunFlags(base, tt.lang, tt.max, tt.subsMin, tt.subsMax, tt.apiKey)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintResult(t *testing.T) {
	result := &models.RunResult{
		Niche:   "crypto trading",
		Summary: models.RunSummary{TotalFound: 12, Analyzed: 2, Qualified: 1},
		Evaluated: []models.EvaluatedCandidate{
			{
				Record:    models.CandidateRecord{Channel: "Solo Trader", Title: "My week"},
				Verdict:   models.ScoreVerdict{LeadScore: 82, NeedsEditor: true, Reason: "Raw cuts", RedFlags: []string{"low upload frequency"}},
				SearchURL: "https://www.youtube.com/watch?v=abc",
			},
			{
				Record:  models.CandidateRecord{Channel: "Polished"},
				Verdict: models.ScoreVerdict{LeadScore: 30},
			},
		},
		Rejections: []models.Rejection{{Channel: "Big Media", Reason: "Channel too big (>150000)"}},
	}

	var buf bytes.Buffer
	printResult(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "Found 12 videos, analyzed 2, qualified 1")
	assert.Contains(t, out, "[82/100] Solo Trader - My week")
	assert.Contains(t, out, "https://www.youtube.com/watch?v=abc")
	assert.Contains(t, out, "flags: low upload frequency")
	assert.NotContains(t, out, "Polished")
	assert.Contains(t, out, "Rejected 1:")
	assert.Contains(t, out, "Big Media: Channel too big (>150000)")
}

func TestPrintResult_Empty(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &models.RunResult{})

	assert.Equal(t, "\nFound 0 videos, analyzed 0, qualified 0\n", buf.String())
}

func TestConfigureLogging(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	require.NoError(t, configureLogging(&buf, "debug", "json"))
	slog.Debug("probe", slog.String("k", "v"))
	assert.Contains(t, buf.String(), `"msg":"probe"`)

	assert.Error(t, configureLogging(&buf, "loud", "text"))
	assert.Error(t, configureLogging(&buf, "info", "xml"))
}
