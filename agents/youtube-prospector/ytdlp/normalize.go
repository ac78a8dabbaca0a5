package ytdlp

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"prospector/internal/models"
)

// videoPayload mirrors the subset of yt-dlp's --dump-json output we rely on.
// Every field is optional upstream, so absence is kept distinct from zero.
type videoPayload struct {
	ID          *string  `json:"id"`
	Title       *string  `json:"title"`
	Channel     *string  `json:"channel"`
	Uploader    *string  `json:"uploader"`
	Description *string  `json:"description"`
	ViewCount   *float64 `json:"view_count"`
	LikeCount   *float64 `json:"like_count"`
	Duration    *float64 `json:"duration"`
	UploadDate  *string  `json:"upload_date"`

	// Subscriber count has been reported under several names across extractor versions
	UploaderSubscriberCount *float64 `json:"uploader_subscriber_count"`
	ChannelFollowerCount    *float64 `json:"channel_follower_count"`
	SubscriberCount         *float64 `json:"subscriber_count"`
}

// searchEntry is one line of a flat-playlist search dump.
type searchEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Uploader string `json:"uploader"`
}

// NormalizeMetadata maps a raw metadata payload onto the canonical record.
// The record URL is the one that was requested, not whatever the payload reports.
func NormalizeMetadata(payload []byte, url string) (*models.CandidateRecord, error) {
	var raw videoPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid metadata payload: %v", ErrUnavailable, err)
	}

	channel := str(raw.Channel)
	if channel == "" {
		channel = str(raw.Uploader)
	}

	return &models.CandidateRecord{
		ID:              str(raw.ID),
		Channel:         channel,
		Title:           str(raw.Title),
		URL:             url,
		Description:     str(raw.Description),
		ViewCount:       count(raw.ViewCount),
		LikeCount:       count(raw.LikeCount),
		DurationSeconds: int(count(raw.Duration)),
		UploadDate:      strings.TrimSpace(str(raw.UploadDate)),
		SubscriberCount: firstCount(raw.UploaderSubscriberCount, raw.ChannelFollowerCount, raw.SubscriberCount),
	}, nil
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func count(v *float64) int64 {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return 0
	}
	return int64(*v)
}

// firstCount returns the first reported value, or nil when none of the fields is present.
func firstCount(candidates ...*float64) *int64 {
	for _, c := range candidates {
		if c != nil && !math.IsNaN(*c) {
			v := int64(*c)
			return &v
		}
	}
	return nil
}
