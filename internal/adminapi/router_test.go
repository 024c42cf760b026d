package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/restreamd/internal/adminapi/metrics"
	"github.com/bluenviron/restreamd/internal/restream"
	"github.com/bluenviron/restreamd/internal/staticsource"
)

type fakeStaticLister struct {
	mounts []staticsource.MountInfo
}

func (f fakeStaticLister) Mounts() []staticsource.MountInfo { return f.mounts }

func TestRouterHealthz(t *testing.T) {
	coord := restream.NewSessionCoordinator(restream.AdmissionPolicy{}, restream.NotificationSink{}, nil)
	rt := New(coord, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestRouterListPaths(t *testing.T) {
	coord := restream.NewSessionCoordinator(restream.AdmissionPolicy{}, restream.NotificationSink{}, nil)
	coord.OnRecord("c1", "/a", "s1", restream.AuthContext{})
	rt := New(coord, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/paths", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snap []restream.PathSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap, 1)
	require.Equal(t, restream.PathID("/a"), snap[0].Path)
	require.True(t, snap[0].IsRecording)
}

func TestRouterListStaticDisabledWithoutLister(t *testing.T) {
	coord := restream.NewSessionCoordinator(restream.AdmissionPolicy{}, restream.NotificationSink{}, nil)
	rt := New(coord, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/static", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterListStatic(t *testing.T) {
	coord := restream.NewSessionCoordinator(restream.AdmissionPolicy{}, restream.NotificationSink{}, nil)
	lister := fakeStaticLister{mounts: []staticsource.MountInfo{{Path: "/bars", Name: "bars", SDP: "v=0"}}}
	rt := New(coord, nil, nil, lister, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/static", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var mounts []staticsource.MountInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mounts))
	require.Len(t, mounts, 1)
	require.Equal(t, "/bars", mounts[0].Path)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	coord := restream.NewSessionCoordinator(restream.AdmissionPolicy{}, restream.NotificationSink{}, nil)
	met := metrics.New()
	rt := New(coord, met, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "restreamd_active_paths")
}
