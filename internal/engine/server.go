package engine

import (
	"crypto/tls"
	"log/slog"

	"github.com/bluenviron/gortsplib/v5"

	"github.com/bluenviron/restreamd/internal/restream"
)

// Config configures the restream RTSP listener.
type Config struct {
	// RestreamAddr is the "host:port" the RTSP server listens on.
	RestreamAddr string
	// UseTLS enables TLS termination on the listener.
	UseTLS bool
	// TLSConfig is required when UseTLS is true.
	TLSConfig *tls.Config
	// MaxPathsCount and MaxClientsPerPath mirror restream.AdmissionPolicy.
	MaxPathsCount     int
	MaxClientsPerPath int
}

// Server wraps a gortsplib.Server bound to a restream.SessionCoordinator
// through a Handler. It is the process-wide RTSP listener wrapped around
// the core state machine, agnostic of whatever event loop gortsplib runs
// internally.
type Server struct {
	inner   *gortsplib.Server
	Handler *Handler
	Log     *slog.Logger
}

// New builds a Server. checker may be nil to disable authentication
// entirely (every request is authorized without a credential check; a Basic
// username, if sent, is still forwarded on connect notifications).
func New(cfg Config, checker AuthChecker, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	policy := restream.AdmissionPolicy{
		MaxPathsCount:     cfg.MaxPathsCount,
		MaxClientsPerPath: cfg.MaxClientsPerPath,
	}
	coordinator := restream.NewSessionCoordinator(policy, restream.NotificationSink{}, log)
	handler := NewHandler(coordinator, checker, log)

	inner := &gortsplib.Server{
		Handler:     handler,
		RTSPAddress: cfg.RestreamAddr,
	}
	if cfg.UseTLS {
		inner.TLSConfig = cfg.TLSConfig
	}
	handler.server = inner

	return &Server{inner: inner, Handler: handler, Log: log}
}

// SetNotificationSink replaces the sink the coordinator reports transitions
// to. Intended to be called once, before Start, to attach the admin API's
// metrics and websocket-event sinks (see internal/adminapi).
func (s *Server) SetNotificationSink(sink restream.NotificationSink) {
	s.Handler.Coordinator.SetSink(sink)
}

// Start begins accepting connections. It returns once the listener fails
// to bind; callers typically run it in its own goroutine.
func (s *Server) Start() error {
	s.Log.Info("restream server starting", "addr", s.inner.RTSPAddress)
	return s.inner.StartAndWait()
}

// Close shuts the listener down and terminates all sessions.
func (s *Server) Close() error {
	s.inner.Close()
	return nil
}
