package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"prospector/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Red flag tokens produced by the scoring client itself.
const (
	FlagJSONInvalid               = "json_invalid"
	FlagLLMError                  = "llm_error"
	FlagQualificationInconsistent = "qualification_inconsistent"
	FlagEvidenceIncomplete        = "evidence_incomplete"
)

// QualificationThreshold is the score the instructed policy requires for needs_editor.
const QualificationThreshold = 70

const expectedEvidence = 2

// ErrMalformedResponse is returned when the model output is not a usable verdict payload.
var ErrMalformedResponse = errors.New("malformed scoring response")

// scoreResponseSchema accepts any object whose known fields carry the right types.
// Missing fields are allowed and default to zero values.
const scoreResponseSchema = `{
  "type": "object",
  "properties": {
    "lead_score": {"type": ["number", "null"]},
    "needs_editor": {"type": ["boolean", "null"]},
    "reason": {"type": ["string", "null"]},
    "evidence": {"type": ["array", "null"], "items": {"type": "string"}},
    "prospecting_message": {"type": ["string", "null"]},
    "red_flags": {"type": ["array", "null"], "items": {"type": "string"}},
    "language_version": {"type": ["string", "null"]}
  }
}`

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(scoreResponseSchema))
})

type scoreResponse struct {
	LeadScore          float64  `json:"lead_score"`
	NeedsEditor        bool     `json:"needs_editor"`
	Reason             string   `json:"reason"`
	Evidence           []string `json:"evidence"`
	ProspectingMessage string   `json:"prospecting_message"`
	RedFlags           []string `json:"red_flags"`
}

// FallbackVerdict is the deterministic verdict used when scoring could not complete.
// It always carries exactly one red flag.
func FallbackVerdict(lang, flag string) models.ScoreVerdict {
	reason := "AI response could not be parsed"
	if flag == FlagLLMError {
		reason = "AI scoring call failed"
	}
	return models.ScoreVerdict{
		LeadScore:       0,
		NeedsEditor:     false,
		Reason:          reason,
		Evidence:        []string{},
		RedFlags:        []string{flag},
		LanguageVersion: lang,
	}
}

// ParseScoreResponse turns raw model output into a verdict. Code fences are stripped first.
// Any syntax or shape problem yields ErrMalformedResponse.
func ParseScoreResponse(raw, lang string) (models.ScoreVerdict, error) {
	cleaned := CleanJSONBlock(raw)
	if cleaned == "" {
		return models.ScoreVerdict{}, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	doc, err := validateShape(cleaned)
	if err != nil {
		return models.ScoreVerdict{}, err
	}

	var resp scoreResponse
	if err := json.Unmarshal([]byte(doc), &resp); err != nil {
		return models.ScoreVerdict{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	verdict := models.ScoreVerdict{
		LeadScore:          clampScore(resp.LeadScore),
		NeedsEditor:        resp.NeedsEditor,
		Reason:             strings.TrimSpace(resp.Reason),
		Evidence:           nonEmpty(resp.Evidence),
		ProspectingMessage: strings.TrimSpace(resp.ProspectingMessage),
		RedFlags:           nonEmpty(resp.RedFlags),
		LanguageVersion:    lang,
	}

	if len(verdict.Evidence) > expectedEvidence {
		verdict.Evidence = verdict.Evidence[:expectedEvidence]
	} else if len(verdict.Evidence) < expectedEvidence {
		verdict.RedFlags = append(verdict.RedFlags, FlagEvidenceIncomplete)
	}

	// The model's qualification is kept even when it contradicts its own score.
	if verdict.NeedsEditor != (verdict.LeadScore >= QualificationThreshold) {
		verdict.RedFlags = append(verdict.RedFlags, FlagQualificationInconsistent)
	}

	return verdict, nil
}

// validateShape checks the payload against the response schema and returns the
// document that passed, which may be a sanitized copy of the input.
func validateShape(doc string) (string, error) {
	schema, err := loadSchema()
	if err != nil {
		return "", fmt.Errorf("failed to compile response schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		// Not parseable at all; try once more with quotes repaired
		sanitized := sanitizeJSON(doc)
		result, err = schema.Validate(gojsonschema.NewStringLoader(sanitized))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		doc = sanitized
	}

	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return "", fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(problems, "; "))
	}
	return doc, nil
}

func clampScore(score float64) int {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(math.Round(score))
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// CleanJSONBlock removes markdown code fence wrappers from a model response.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Skip a language identifier on the opening fence line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(text[:idx])
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
			text = text[idx+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// sanitizeJSON escapes stray quotes inside single-line string values,
// a common defect in model-written JSON.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	var sanitizedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, ":") && strings.Contains(line, "\"") {
			colonIdx := strings.Index(line, "\":")
			if colonIdx != -1 {
				beforeColon := line[:colonIdx+2]
				afterColon := strings.TrimSpace(line[colonIdx+2:])

				if strings.HasPrefix(afterColon, "\"") {
					lastQuoteIdx := strings.LastIndex(afterColon, "\"")
					if lastQuoteIdx > 0 {
						content := afterColon[1:lastQuoteIdx]
						content = strings.ReplaceAll(content, `\"`, `"`)
						content = strings.ReplaceAll(content, `"`, `\"`)
						line = beforeColon + " \"" + content + "\"" + afterColon[lastQuoteIdx+1:]
					}
				}
			}
		}

		sanitizedLines = append(sanitizedLines, line)
	}

	return strings.Join(sanitizedLines, "\n")
}
