package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/restreamd/internal/restream"
)

func TestSinkIncrementsCounters(t *testing.T) {
	m := New()
	sink := m.Sink()

	sink.FirstPlayerConnected("alice", "/a")
	sink.RecorderConnected("bob", "/a")
	sink.RecorderDisconnected("/a")
	sink.LastPlayerDisconnected("/a")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler(nil).ServeHTTP(w, req)

	body := w.Body.String()
	require.Contains(t, body, "restreamd_first_player_connected_total 1")
	require.Contains(t, body, "restreamd_recorder_connected_total 1")
	require.Contains(t, body, "restreamd_recorder_disconnected_total 1")
	require.Contains(t, body, "restreamd_last_player_disconnected_total 1")
}

func TestHandlerRunsUpdateGaugesBeforeScrape(t *testing.T) {
	m := New()
	m.SetActivePaths(0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler(func() { m.SetActivePaths(3) }).ServeHTTP(w, req)

	require.True(t, strings.Contains(w.Body.String(), "restreamd_active_paths 3"))
}

func TestSinkSatisfiesNotificationSink(t *testing.T) {
	var _ restream.NotificationSink = New().Sink()
}
