package restream

// Decision is the outcome of an admission check.
type Decision int

const (
	// Allow permits the requested operation to proceed.
	Allow Decision = iota
	// DenyForbidden maps to RTSP 403 Forbidden (player cap reached).
	DenyForbidden
	// DenyServiceUnavailable maps to RTSP 503 Service Unavailable (path already
	// recording, or a new path would exceed MaxPathsCount).
	DenyServiceUnavailable
)

// AdmissionPolicy enforces the configured per-path and per-server limits.
// It is stateless beyond its own configuration: every check is evaluated
// against a StateStore snapshot passed in by the caller.
type AdmissionPolicy struct {
	// MaxPathsCount caps the number of distinct live paths. Zero disables the limit.
	MaxPathsCount int
	// MaxClientsPerPath caps concurrent play sessions on a single path. Zero disables the limit.
	MaxClientsPerPath int
}

// CheckPlay decides whether a new PLAY session may be admitted to path.
//
// The comparison intentionally does not exclude the recorder from the
// count: it denies once playCount >= MaxClientsPerPath-1, run before the
// increment, so that playCount after admission never exceeds the limit.
// Whether the recorder ought to be excluded from this comparison is an
// open policy question the source leaves unresolved; this reproduces its
// literal behavior.
func (a AdmissionPolicy) CheckPlay(store *StateStore, path PathID) Decision {
	if a.MaxClientsPerPath <= 0 {
		return Allow
	}
	pe, ok := store.pathEntryFor(path)
	if !ok {
		return Allow
	}
	if pe.playCount >= uint32(a.MaxClientsPerPath-1) {
		return DenyForbidden
	}
	return Allow
}

// CheckRecord decides whether a new RECORD session may be admitted to path.
// Denied if path already has a recorder attached.
func (a AdmissionPolicy) CheckRecord(store *StateStore, path PathID) Decision {
	if store.isRecording(path) {
		return DenyServiceUnavailable
	}
	return Allow
}

// CheckNewPath decides whether a not-yet-existing path may be created.
// PrePlay and PreRecord both run this ahead of their own check, since a
// path in this system comes into existence lazily on the first PLAY or
// RECORD rather than through any separate registration step.
func (a AdmissionPolicy) CheckNewPath(store *StateStore, path PathID) Decision {
	if a.MaxPathsCount <= 0 {
		return Allow
	}
	if store.pathExists(path) {
		return Allow
	}
	if store.pathCount() >= a.MaxPathsCount {
		return DenyServiceUnavailable
	}
	return Allow
}
