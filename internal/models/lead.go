package models

import "time"

// CandidateRef is a raw search hit. It is only used to locate the full metadata.
type CandidateRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Channel string `json:"channel"`
}

// CandidateRecord is the normalized video metadata every filtering and scoring stage works on.
type CandidateRecord struct {
	ID              string `json:"id,omitempty"`
	Channel         string `json:"channel"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	ViewCount       int64  `json:"view_count"`
	LikeCount       int64  `json:"like_count"`
	DurationSeconds int    `json:"duration_seconds"`
	// UploadDate is YYYYMMDD, or empty when the upstream did not report it.
	UploadDate string `json:"upload_date"`
	// SubscriberCount is nil when unknown. Unknown is not zero.
	SubscriberCount *int64 `json:"subscriber_count"`
}

// SubscribersKnown reports whether the upstream reported a subscriber count.
func (r *CandidateRecord) SubscribersKnown() bool {
	return r.SubscriberCount != nil
}

// GateVerdict is the outcome of the deterministic prequalification rules.
type GateVerdict struct {
	Passed bool     `json:"passed"`
	Reason string   `json:"reason,omitempty"`
	Flags  []string `json:"flags"`
}

// ScoreVerdict is the structured lead assessment returned by the scoring client.
type ScoreVerdict struct {
	LeadScore          int      `json:"lead_score"`
	NeedsEditor        bool     `json:"needs_editor"`
	Reason             string   `json:"reason"`
	Evidence           []string `json:"evidence"`
	ProspectingMessage string   `json:"prospecting_message"`
	RedFlags           []string `json:"red_flags"`
	LanguageVersion    string   `json:"language_version"`
}

// EvaluatedCandidate is a candidate that passed every gate and was scored.
type EvaluatedCandidate struct {
	Record      CandidateRecord `json:"record"`
	Verdict     ScoreVerdict    `json:"verdict"`
	SearchURL   string          `json:"search_url"`
	DisplayDate string          `json:"display_date"`
}

// Qualified reports whether the scoring verdict marked this candidate as a lead.
func (e *EvaluatedCandidate) Qualified() bool {
	return e.Verdict.NeedsEditor
}

// Rejection records why a candidate was dropped before scoring.
type Rejection struct {
	Channel string   `json:"channel"`
	URL     string   `json:"url"`
	Reason  string   `json:"reason"`
	Flags   []string `json:"flags,omitempty"`
}

// RunSummary holds the derived counters of a single pipeline run.
type RunSummary struct {
	TotalFound int `json:"total_found"`
	Analyzed   int `json:"analyzed"`
	Qualified  int `json:"qualified"`
}

// RunResult is everything a pipeline run produced.
type RunResult struct {
	RunID      string               `json:"run_id"`
	Niche      string               `json:"niche"`
	Language   string               `json:"language"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Summary    RunSummary           `json:"summary"`
	Evaluated  []EvaluatedCandidate `json:"evaluated"`
	Rejections []Rejection          `json:"rejections"`
}

// Qualified returns the evaluated candidates marked as leads, in evaluation order.
func (r *RunResult) Qualified() []EvaluatedCandidate {
	var out []EvaluatedCandidate
	for _, e := range r.Evaluated {
		if e.Qualified() {
			out = append(out, e)
		}
	}
	return out
}
