package ai

import (
	"fmt"
	"strconv"

	"prospector/internal/models"
)

// descriptionExcerptRunes bounds how much of the description is sent to the model.
const descriptionExcerptRunes = 600

type promptFraming struct {
	role        string
	task        string
	instruction string
}

var framings = map[string]promptFraming{
	"en": {
		role:        "You are an expert YouTube strategist and personalized outreach specialist.",
		task:        "Analyze this channel for video editing service needs.",
		instruction: "Write the prospecting message in ENGLISH.",
	},
	"fr": {
		role:        "Tu es un expert en stratégie YouTube et prospection commerciale.",
		task:        "Analyse cette chaîne pour détecter des besoins en montage vidéo.",
		instruction: "Rédige le message de prospection en FRANÇAIS.",
	},
}

// scoringRubric is the scoring policy the model applies. The pipeline never re-derives it.
const scoringRubric = `STRICT SCORING (base 0 points):
+20 pts: Solo creator / individual tone (e.g. "my channel", vlog).
+15 pts: Ideal duration (8 to 30 min).
+10 pts: Moderate views (1k - 50k).
+15 pts: Signs of imperfect editing (mentioned in the description, or long format without timestamps).

PENALTIES & CAPS (strict rules):
-30 pts: Highly produced / branded channel (TV branding, music videos, trailers).
-50 pts: Subscribers >= 500k (even if the filters were passed).
MAX CAP 60: if subscribers >= 200k.
MAX CAP 50: if the video is already very polished / masterclass.

GOLDEN RULE: needs_editor = true ONLY if lead_score >= 70.`

// BuildScoringPrompt renders the deterministic scoring prompt for one candidate.
// Unknown language tags use the French framing.
func BuildScoringPrompt(record *models.CandidateRecord, lang string) string {
	framing, ok := framings[lang]
	if !ok {
		framing = framings["fr"]
	}

	subscribers := "unknown"
	if record.SubscribersKnown() {
		subscribers = strconv.FormatInt(*record.SubscriberCount, 10)
	}

	return fmt.Sprintf(`
%s
%s

CANDIDATE INFO:
- Channel: %s
- Video: %s
- Duration: %ds
- Views: %d
- Subscribers: %s
- Upload date: %s
- Partial description: %s...

%s

EXPECTED RESPONSE FORMAT (PURE JSON):
{
  "lead_score": int,
  "needs_editor": boolean,
  "reason": "1-2 sentences max explaining the decision",
  "evidence": ["Precise fact 1 (e.g. duration 12min)", "Precise fact 2 (e.g. solo creator)"],
  "prospecting_message": "Short personalized message (if qualified)",
  "red_flags": ["List", "of", "negative", "points"],
  "language_version": "%s"
}
Requirement: 'evidence' must contain exactly 2 facts taken from the information provided.

%s
Respond ONLY with the JSON. No prose, no markdown, no code fences.
`,
		framing.role,
		framing.task,
		record.Channel,
		record.Title,
		record.DurationSeconds,
		record.ViewCount,
		subscribers,
		record.UploadDate,
		truncateRunes(record.Description, descriptionExcerptRunes),
		scoringRubric,
		lang,
		framing.instruction,
	)
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
