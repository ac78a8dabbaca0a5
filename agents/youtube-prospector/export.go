package youtubeprospector

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"prospector/internal/models"
)

// ExportColumns is the fixed header of the lead table.
var ExportColumns = []string{
	"run_timestamp",
	"niche",
	"query_used",
	"channel",
	"video_title",
	"video_url",
	"upload_date",
	"subscriber_count",
	"view_count",
	"lead_score",
	"needs_editor",
	"language_version",
	"reason",
	"evidence",
	"prospecting_message",
	"red_flags",
}

const exportTimestampLayout = "2006-01-02 15:04:05"

// ToTable serializes evaluated candidates as CSV with one row each.
// Rejections never appear here. All rows share the runAt timestamp.
func ToTable(evaluated []models.EvaluatedCandidate, niche string, runAt time.Time) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ExportColumns); err != nil {
		return "", fmt.Errorf("failed to write export header: %w", err)
	}

	timestamp := runAt.Format(exportTimestampLayout)
	for _, e := range evaluated {
		subscribers := ""
		if e.Record.SubscribersKnown() {
			subscribers = strconv.FormatInt(*e.Record.SubscriberCount, 10)
		}
		url := e.SearchURL
		if url == "" {
			url = e.Record.URL
		}

		row := []string{
			timestamp,
			niche,
			niche,
			e.Record.Channel,
			e.Record.Title,
			url,
			e.DisplayDate,
			subscribers,
			strconv.FormatInt(e.Record.ViewCount, 10),
			strconv.Itoa(e.Verdict.LeadScore),
			strconv.FormatBool(e.Verdict.NeedsEditor),
			e.Verdict.LanguageVersion,
			e.Verdict.Reason,
			strings.Join(e.Verdict.Evidence, "; "),
			e.Verdict.ProspectingMessage,
			strings.Join(e.Verdict.RedFlags, ";"),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write export row for %s: %w", url, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.String(), nil
}
