package ytdlp

import (
	"context"
	"errors"
	"testing"
	"time"

	"prospector/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
}

type fakeRunner struct {
	output []byte
	err    error
	calls  []recordedCall
	block  bool
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.output, f.err
}

func newTestClient(runner *fakeRunner) *Client {
	c := NewClient(&config.SearchConfig{YtDlpPath: "/usr/local/bin/yt-dlp", SocketTimeout: 10 * time.Second}, 30)
	c.run = runner.run
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(&config.SearchConfig{}, 0)
	assert.Equal(t, "yt-dlp", c.binary)
	assert.Equal(t, 10*time.Second, c.socketTimeout)
}

func TestSearch_BuildsCommand(t *testing.T) {
	runner := &fakeRunner{}
	_, err := newTestClient(runner).Search(context.Background(), "crypto trading", 15, time.Minute)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/usr/local/bin/yt-dlp", runner.calls[0].name)
	assert.Equal(t, []string{
		"ytsearch15:crypto trading",
		"--dump-json",
		"--no-download",
		"--skip-download",
		"--flat-playlist",
		"--no-warnings",
		"--dateafter", "now-30days",
		"--extractor-args", "youtube:player_skip=configs",
	}, runner.calls[0].args)
}

func TestSearch_ParsesLines(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{"id": "aaa", "title": "First", "url": "https://www.youtube.com/watch?v=aaa", "uploader": "Chan A"}
not json at all

{"id": "bbb", "title": "Second"}
{"title": "no id or url"}
{"id": "ccc", "title": "Third", "uploader": "Chan C"}
`)}

	refs, err := newTestClient(runner).Search(context.Background(), "crypto", 9, time.Minute)
	require.NoError(t, err)

	require.Len(t, refs, 3)
	assert.Equal(t, "aaa", refs[0].ID)
	assert.Equal(t, "Chan A", refs[0].Channel)
	assert.Equal(t, "https://www.youtube.com/watch?v=bbb", refs[1].URL)
	assert.Equal(t, "Unknown", refs[1].Channel)
	assert.Equal(t, "ccc", refs[2].ID)
}

func TestSearch_Failures(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	refs, err := newTestClient(runner).Search(context.Background(), "crypto", 3, time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, refs)

	runner = &fakeRunner{block: true}
	refs, err = newTestClient(runner).Search(context.Background(), "crypto", 3, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, refs)
}

func TestFetch(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{"channel": "Solo Trader", "duration": 840, "upload_date": "20261001"}` + "\n")}

	record, err := newTestClient(runner).Fetch(context.Background(), videoURL, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "Solo Trader", record.Channel)
	assert.Equal(t, videoURL, record.URL)
	assert.Equal(t, []string{
		videoURL,
		"--dump-json",
		"--no-download",
		"--skip-download",
		"--socket-timeout", "10",
		"--no-warnings",
	}, runner.calls[0].args)
}

func TestFetch_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{"non-zero exit", &fakeRunner{err: errors.New("exit status 1: ERROR: Video unavailable")}},
		{"empty output", &fakeRunner{output: []byte("  \n")}},
		{"unparsable output", &fakeRunner{output: []byte("{truncated")}},
		{"timeout", &fakeRunner{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := newTestClient(tt.runner).Fetch(context.Background(), videoURL, 10*time.Millisecond)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, record)
			assert.Len(t, tt.runner.calls, 1, "no retries")
		})
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := execRunner(context.Background(), "yt-dlp-binary-that-does-not-exist")
	assert.Error(t, err)
}
