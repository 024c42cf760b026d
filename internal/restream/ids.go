// Package restream implements the path/session state machine that admits
// players and recorders onto RTSP paths and reports lifecycle transitions.
// It has no knowledge of RTSP wire formats, transports or media: those are
// the responsibility of the engine that drives it (see internal/engine).
package restream

// ClientID identifies one live transport connection. It is opaque to this
// package: callers typically pass a pointer to their own connection object.
// It must be comparable, since it is used as a map key.
type ClientID any

// PathID is the absolute RTSP path of a mount point, e.g. "/cam1".
type PathID string

// SessionID is an RTSP session identifier, as issued by the RTSP engine.
type SessionID string
