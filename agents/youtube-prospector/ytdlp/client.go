// Package ytdlp implements the search and metadata capabilities on top of the
// yt-dlp command line tool. Each call runs one subprocess with a bounded timeout.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"prospector/internal/models"
	"prospector/shared/config"
)

// ErrUnavailable is returned when metadata or search results could not be obtained.
var ErrUnavailable = errors.New("yt-dlp result unavailable")

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

type Client struct {
	binary        string
	socketTimeout time.Duration
	recencyDays   int
	run           Runner
}

func NewClient(cfg *config.SearchConfig, recencyDays int) *Client {
	binary := cfg.YtDlpPath
	if binary == "" {
		binary = "yt-dlp"
	}
	socketTimeout := cfg.SocketTimeout
	if socketTimeout <= 0 {
		socketTimeout = 10 * time.Second
	}
	return &Client{
		binary:        binary,
		socketTimeout: socketTimeout,
		recencyDays:   recencyDays,
		run:           execRunner,
	}
}

// Search returns up to limit hits for query, in upstream order.
// Lines that do not decode are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int, timeout time.Duration) ([]models.CandidateRef, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		fmt.Sprintf("ytsearch%d:%s", limit, query),
		"--dump-json",
		"--no-download",
		"--skip-download",
		"--flat-playlist",
		"--no-warnings",
	}
	if c.recencyDays > 0 {
		args = append(args, "--dateafter", fmt.Sprintf("now-%ddays", c.recencyDays))
	}
	args = append(args, "--extractor-args", "youtube:player_skip=configs")

	out, err := c.run(ctx, c.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrUnavailable, query, err)
	}

	var refs []models.CandidateRef
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry searchEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			slog.Debug("skipping undecodable search line", slog.Any("error", err))
			continue
		}
		if entry.ID == "" && entry.URL == "" {
			continue
		}
		refs = append(refs, toRef(entry))
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("search output truncated", slog.String("query", query), slog.Any("error", err))
	}

	return refs, nil
}

// Fetch retrieves the full metadata of one video.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) (*models.CandidateRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := c.run(ctx, c.binary,
		url,
		"--dump-json",
		"--no-download",
		"--skip-download",
		"--socket-timeout", strconv.Itoa(int(c.socketTimeout.Seconds())),
		"--no-warnings",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrUnavailable, url, err)
	}

	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: fetch %s: empty output", ErrUnavailable, url)
	}

	return NormalizeMetadata(out, url)
}

func toRef(entry searchEntry) models.CandidateRef {
	ref := models.CandidateRef{
		ID:      entry.ID,
		Title:   entry.Title,
		URL:     entry.URL,
		Channel: entry.Uploader,
	}
	if ref.URL == "" {
		ref.URL = "https://www.youtube.com/watch?v=" + entry.ID
	}
	if ref.Channel == "" {
		ref.Channel = "Unknown"
	}
	return ref
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
