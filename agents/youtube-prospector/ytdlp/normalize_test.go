package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoURL = "https://www.youtube.com/watch?v=abc123def45"

func TestNormalizeMetadata_FullPayload(t *testing.T) {
	payload := `{
		"id": "abc123def45",
		"title": "My crypto week",
		"channel": "Solo Trader",
		"uploader": "solotrader",
		"description": "Weekly vlog",
		"view_count": 4200,
		"like_count": 310,
		"duration": 840.5,
		"upload_date": "20261001",
		"channel_follower_count": 12000,
		"webpage_url": "https://youtu.be/abc123def45"
	}`

	record, err := NormalizeMetadata([]byte(payload), videoURL)
	require.NoError(t, err)

	assert.Equal(t, "abc123def45", record.ID)
	assert.Equal(t, "Solo Trader", record.Channel)
	assert.Equal(t, "My crypto week", record.Title)
	assert.Equal(t, videoURL, record.URL)
	assert.Equal(t, "Weekly vlog", record.Description)
	assert.Equal(t, int64(4200), record.ViewCount)
	assert.Equal(t, int64(310), record.LikeCount)
	assert.Equal(t, 840, record.DurationSeconds)
	assert.Equal(t, "20261001", record.UploadDate)
	require.NotNil(t, record.SubscriberCount)
	assert.Equal(t, int64(12000), *record.SubscriberCount)
}

func TestNormalizeMetadata_SubscriberCascade(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *int64
	}{
		{"uploader field wins", `{"uploader_subscriber_count": 1, "channel_follower_count": 2, "subscriber_count": 3}`, ptr(1)},
		{"follower count next", `{"uploader_subscriber_count": null, "channel_follower_count": 2, "subscriber_count": 3}`, ptr(2)},
		{"legacy field last", `{"subscriber_count": 3}`, ptr(3)},
		{"zero is a value", `{"channel_follower_count": 0, "subscriber_count": 3}`, ptr(0)},
		{"none present is unknown", `{"title": "x"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := NormalizeMetadata([]byte(tt.payload), videoURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, record.SubscriberCount)
		})
	}
}

func TestNormalizeMetadata_PartialPayload(t *testing.T) {
	record, err := NormalizeMetadata([]byte(`{"uploader": "solotrader", "view_count": null}`), videoURL)
	require.NoError(t, err)

	assert.Equal(t, "solotrader", record.Channel, "uploader is the channel fallback")
	assert.Zero(t, record.ViewCount)
	assert.Zero(t, record.DurationSeconds)
	assert.Empty(t, record.UploadDate)
	assert.Nil(t, record.SubscriberCount)
}

func TestNormalizeMetadata_Invalid(t *testing.T) {
	for _, payload := range []string{"", "not json", `["a"]`, `{"view_count": "many"}`} {
		_, err := NormalizeMetadata([]byte(payload), videoURL)
		assert.ErrorIs(t, err, ErrUnavailable, "payload %q", payload)
	}
}

func ptr(v int64) *int64 { return &v }
