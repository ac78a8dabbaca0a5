// Package youtube implements the search and metadata capabilities on top of
// the YouTube Data API v3, authenticated by API key or OAuth device flow.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"prospector/internal/models"
	"prospector/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrUnavailable is returned when the API could not provide results.
var ErrUnavailable = errors.New("youtube data api result unavailable")

const maxPageSize = 50

var (
	videoIDRE  = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	durationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)
)

type Client struct {
	service     *youtube.Service
	recencyDays int
	now         func() time.Time
}

// NewClient authenticates with the API key when one is configured and with
// the OAuth device flow otherwise.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, recencyDays int) (*Client, error) {
	var opts []option.ClientOption

	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{readonlyScope},
			Endpoint:     google.Endpoint,
		}

		token, err := loadOrAuthorize(ctx, oauthConfig, cfg.TokenFile, os.Stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to get OAuth token: %w", err)
		}

		source := &tokenSaver{
			config:    oauthConfig,
			token:     token,
			tokenFile: cfg.TokenFile,
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, source)))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return newClientWithService(service, recencyDays), nil
}

func newClientWithService(service *youtube.Service, recencyDays int) *Client {
	return &Client{
		service:     service,
		recencyDays: recencyDays,
		now:         time.Now,
	}
}

// Search pages through video results until limit hits are collected.
func (c *Client) Search(ctx context.Context, query string, limit int, timeout time.Duration) ([]models.CandidateRef, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var refs []models.CandidateRef
	pageToken := ""

	for len(refs) < limit {
		call := c.service.Search.List([]string{"snippet"}).
			Q(query).
			Type("video").
			MaxResults(int64(min(limit-len(refs), maxPageSize)))
		if c.recencyDays > 0 {
			call = call.PublishedAfter(c.now().AddDate(0, 0, -c.recencyDays).UTC().Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			if len(refs) > 0 {
				slog.Warn("search paging stopped early", slog.String("query", query), slog.Int("hits", len(refs)), slog.Any("error", err))
				break
			}
			return nil, fmt.Errorf("%w: search %q: %v", ErrUnavailable, query, err)
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			ref := models.CandidateRef{
				ID:      item.Id.VideoId,
				URL:     watchURL(item.Id.VideoId),
				Channel: "Unknown",
			}
			if item.Snippet != nil {
				ref.Title = item.Snippet.Title
				if item.Snippet.ChannelTitle != "" {
					ref.Channel = item.Snippet.ChannelTitle
				}
			}
			refs = append(refs, ref)
		}

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

// Fetch resolves one watch URL into a record. A failed channel lookup leaves
// the subscriber count unknown; it does not fail the fetch.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) (*models.CandidateRecord, error) {
	id := extractVideoID(url)
	if id == "" {
		return nil, fmt.Errorf("%w: no video id in %s", ErrUnavailable, url)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %v", ErrUnavailable, id, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: video %s not found", ErrUnavailable, id)
	}

	item := resp.Items[0]
	record := &models.CandidateRecord{ID: item.Id, URL: url}

	var channelID string
	if item.Snippet != nil {
		record.Title = item.Snippet.Title
		record.Description = item.Snippet.Description
		record.Channel = item.Snippet.ChannelTitle
		record.UploadDate = uploadDate(item.Snippet.PublishedAt)
		channelID = item.Snippet.ChannelId
	}
	if item.ContentDetails != nil {
		record.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
	}
	if item.Statistics != nil {
		record.ViewCount = int64(item.Statistics.ViewCount)
		record.LikeCount = int64(item.Statistics.LikeCount)
	}
	if channelID != "" {
		record.SubscriberCount = c.subscriberCount(ctx, channelID)
	}

	return record, nil
}

// subscriberCount returns nil when the count is hidden or cannot be read.
func (c *Client) subscriberCount(ctx context.Context, channelID string) *int64 {
	resp, err := c.service.Channels.List([]string{"statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		slog.Warn("channel statistics unavailable", slog.String("channel_id", channelID), slog.Any("error", err))
		return nil
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil || resp.Items[0].Statistics.HiddenSubscriberCount {
		return nil
	}

	subs := int64(resp.Items[0].Statistics.SubscriberCount)
	return &subs
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// extractVideoID pulls the 11-char video ID from any YouTube URL format.
func extractVideoID(rawURL string) string {
	if m := videoIDRE.FindStringSubmatch(rawURL); len(m) >= 2 {
		return m[1]
	}
	return ""
}

// uploadDate converts an RFC 3339 publish time to YYYYMMDD in UTC.
func uploadDate(publishedAt string) string {
	t, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return ""
	}
	return t.UTC().Format("20060102")
}

// parseDurationSeconds parses ISO 8601 durations such as PT1M30S or P1DT2H.
func parseDurationSeconds(duration string) int {
	m := durationRE.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}

	var total int
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}
