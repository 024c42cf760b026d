// Package adminapi exposes the host-facing HTTP surface: health checks,
// Prometheus metrics, a read-only path snapshot, and a websocket feed of
// lifecycle transitions. None of it participates in RTSP admission; it
// only observes the SessionCoordinator.
package adminapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bluenviron/restreamd/internal/adminapi/metrics"
	"github.com/bluenviron/restreamd/internal/restream"
	"github.com/bluenviron/restreamd/internal/restreamd/logger"
	"github.com/bluenviron/restreamd/internal/staticsource"
)

// Router builds the admin HTTP surface bound to coordinator.
type Router struct {
	coordinator *restream.SessionCoordinator
	metrics     *metrics.Metrics
	events      *EventFeed
	static      StaticLister
	log         *slog.Logger
}

// StaticLister reports the fixed patterns currently served by the
// static-source helper, for the admin API's read-only listing.
type StaticLister interface {
	Mounts() []staticsource.MountInfo
}

// New builds a Router. Any of metrics/events/static may be nil to disable
// that surface (e.g. in tests).
func New(coordinator *restream.SessionCoordinator, m *metrics.Metrics, events *EventFeed, static StaticLister, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{coordinator: coordinator, metrics: m, events: events, static: static, log: log}
}

// Handler returns the fully assembled http.Handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(rt.log))

	r.Get("/healthz", rt.healthz)
	r.Get("/api/paths", rt.listPaths)

	if rt.static != nil {
		r.Get("/api/static", rt.listStatic)
	}

	if rt.metrics != nil {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			rt.metrics.Handler(func() {
				rt.metrics.SetActivePaths(rt.coordinator.PathCount())
			}).ServeHTTP(w, r)
		})
	}

	if rt.events != nil {
		r.Get("/events", rt.events.ServeHTTP)
	}

	return r
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) listPaths(w http.ResponseWriter, r *http.Request) {
	snap := rt.coordinator.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		rt.log.Error("failed to encode path snapshot", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (rt *Router) listStatic(w http.ResponseWriter, r *http.Request) {
	mounts := rt.static.Mounts()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mounts); err != nil {
		rt.log.Error("failed to encode static mount listing", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
