package monitoring

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedMonitor() *Monitor {
	m := NewMonitor()
	m.now = func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) }
	return m
}

func TestMonitor_Lifecycle(t *testing.T) {
	m := fixedMonitor()
	assert.True(t, m.IsHealthy(), "healthy before the first run")
	assert.Equal(t, "No runs yet", m.GetStatusSummary())

	m.RecordSuccess("found 3 videos, analyzed 1, qualified 1", time.Second)
	assert.True(t, m.IsHealthy())
	assert.Equal(t, "Last run: Oct 14 09:00 (found 3 videos, analyzed 1, qualified 1)", m.GetStatusSummary())

	m.RecordPartialFailure(errors.New("export failed"), time.Second)
	assert.True(t, m.IsHealthy(), "partial failures keep the service healthy")

	m.RecordCriticalFailure(errors.New("missing credential"), time.Second)
	assert.False(t, m.IsHealthy())
	assert.Equal(t, "Last run failed: Oct 14 09:00", m.GetStatusSummary())

	snap := m.Snapshot()
	assert.Equal(t, 2, snap.Runs)
	assert.Equal(t, 1, snap.PartialFailures)
	assert.Equal(t, 1, snap.Failures)
	assert.Equal(t, "missing credential", snap.LastError)
	assert.False(t, snap.Healthy)
}

func TestHealthServer_Routes(t *testing.T) {
	m := fixedMonitor()
	srv := httptest.NewServer(NewHealthServer(m, 0).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	m.RecordCriticalFailure(errors.New("boom"), time.Millisecond)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "Service unhealthy"))

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 1, snap.Failures)
	assert.Equal(t, "boom", snap.LastError)

	resp, err = http.Post(srv.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
