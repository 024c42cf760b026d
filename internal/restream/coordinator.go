package restream

import (
	"log/slog"
	"sync"
)

// SessionCoordinator is the path/session state machine: it handles the
// lifecycle events raised by an RTSP engine, applies AdmissionPolicy,
// mutates a StateStore and reports transitions to a NotificationSink.
//
// Every exported method runs under a single mutex, covering the whole
// read-decide-mutate-emit sequence of the event. Notification callbacks
// are therefore invoked with the lock held: they must be non-blocking and
// must never call back into the coordinator (see NotificationSink).
type SessionCoordinator struct {
	mu     sync.Mutex
	store  *StateStore
	policy AdmissionPolicy
	sink   NotificationSink
	log    *slog.Logger
}

// NewSessionCoordinator builds a coordinator over a fresh StateStore. A nil
// logger falls back to slog.Default().
func NewSessionCoordinator(policy AdmissionPolicy, sink NotificationSink, log *slog.Logger) *SessionCoordinator {
	if log == nil {
		log = slog.Default()
	}
	return &SessionCoordinator{
		store:  NewStateStore(),
		policy: policy,
		sink:   sink,
		log:    log,
	}
}

// PathSnapshot is a read-only view of one path entry, for introspection by
// the admin API. It is a copy: mutating it has no effect on the store.
type PathSnapshot struct {
	Path         PathID
	PlayerCount  uint32
	IsRecording  bool
	ClientCount  int
}

// Snapshot returns a point-in-time copy of every live path entry. Safe to
// call concurrently with event dispatch; it takes the same lock.
func (c *SessionCoordinator) Snapshot() []PathSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]PathSnapshot, 0, len(c.store.paths))
	for path, pe := range c.store.paths {
		out = append(out, PathSnapshot{
			Path:        path,
			PlayerCount: pe.playCount,
			IsRecording: pe.isRecording(),
			ClientCount: len(pe.refClients),
		})
	}
	return out
}

// PathCount reports the number of currently live paths.
func (c *SessionCoordinator) PathCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.pathCount()
}

// SetSink replaces the NotificationSink transitions are reported to. Meant
// to be called once during wiring, before any events are dispatched; it
// takes the coordinator lock so it is safe to call concurrently with event
// dispatch, but doing so mid-flight has undefined which sink observes which
// event.
func (c *SessionCoordinator) SetSink(sink NotificationSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// OnClientConnected registers client as an observable entity. No StateStore
// mutation happens here: the client entry is created lazily on first play
// or record.
func (c *SessionCoordinator) OnClientConnected(client ClientID) {
	c.log.Debug("client connected", "client", client)
}

// PrePlay decides whether a PLAY request on path should be admitted, before
// any state mutation. Callers should map DenyForbidden to RTSP 403 and
// DenyServiceUnavailable (the path doesn't exist yet and MaxPathsCount is
// already reached) to RTSP 503.
func (c *SessionCoordinator) PrePlay(client ClientID, path PathID, session SessionID) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d := c.policy.CheckNewPath(c.store, path); d != Allow {
		return d
	}
	return c.policy.CheckPlay(c.store, path)
}

// OnPlay records a successful PLAY admission: registers the (client, path)
// reference and increments play_count. Emits FirstPlayerConnected exactly
// once, on the 0->1 transition.
func (c *SessionCoordinator) OnPlay(client ClientID, path PathID, session SessionID, auth AuthContext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pe := c.store.register(client, path)
	pe.playCount++
	if pe.playCount == 1 {
		c.sink.firstPlayerConnected(auth.bind(), path)
	}
}

// PreRecord decides whether a RECORD request on path should be admitted.
// Callers should map DenyServiceUnavailable to RTSP 503, whether it came
// from an already-attached recorder or from MaxPathsCount on a new path.
func (c *SessionCoordinator) PreRecord(client ClientID, path PathID, session SessionID) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d := c.policy.CheckNewPath(c.store, path); d != Allow {
		return d
	}
	return c.policy.CheckRecord(c.store, path)
}

// OnRecord records a successful RECORD admission: registers the (client,
// path) reference and, if the path has no recorder yet, attaches client as
// its recorder and emits RecorderConnected exactly once. A recorder already
// present (a race pre_record did not catch, or an engine bug) is logged and
// left untouched rather than overwritten.
func (c *SessionCoordinator) OnRecord(client ClientID, path PathID, session SessionID, auth AuthContext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pe := c.store.register(client, path)
	if pe.isRecording() {
		err := InconsistencyError{Detail: "record on path with existing recorder, ignoring"}
		c.log.Error(err.Error(), "path", path, "existing_client", pe.recordClient, "new_client", client)
		return
	}
	pe.recordClient = client
	pe.recordSessionID = session
	c.sink.recorderConnected(auth.bind(), path)
}

// OnTeardown handles an explicit TEARDOWN for one (client, path, session).
// It does not remove the client<->path reference; that bookkeeping is
// deferred to OnClientClosed, so a client that tears down every session but
// stays connected keeps its path references until disconnection.
func (c *SessionCoordinator) OnTeardown(client ClientID, path PathID, session SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pe, ok := c.store.pathEntryFor(path)
	if !ok {
		c.log.Error(InconsistencyError{Detail: "teardown on unknown path"}.Error(), "path", path, "client", client)
		return
	}

	switch {
	case pe.recordClient == client && pe.recordSessionID == session:
		pe.recordClient = nil
		pe.recordSessionID = ""
		c.sink.recorderDisconnected(path)

	case pe.playCount > 0:
		pe.playCount--
		if pe.playCount == 0 {
			c.sink.lastPlayerDisconnected(path)
		}

	default:
		err := ErrSessionNotFound{Client: client, Session: session}
		c.log.Error(err.Error(), "path", path)
	}
}

// OnClientClosed handles an abrupt or final connection closure: for every
// path the client still references, it drops the reference and, if that
// was the last reference, retires the path entirely. The second branch
// below preserves an intentionally subtle emission: when the closing client
// was not the recorder and exactly one reference (the recorder) remains
// afterward, a play_count of 1 is decremented and LastPlayerDisconnected
// fires, whichever client actually held that play session.
func (c *SessionCoordinator) OnClientClosed(client ClientID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ce, ok := c.store.clientEntryFor(client)
	if !ok {
		return
	}

	for path := range ce.refPaths {
		pe, ok := c.store.pathEntryFor(path)
		if !ok {
			c.log.Error(InconsistencyError{Detail: "client references unknown path at closure"}.Error(),
				"path", path, "client", client)
			continue
		}

		delete(pe.refClients, client)

		if len(pe.refClients) == 0 {
			c.retirePath(pe, path, client)
			continue
		}

		wasRecorder := pe.recordClient == client
		if wasRecorder {
			pe.recordClient = nil
			pe.recordSessionID = ""
			c.sink.recorderDisconnected(path)
		}

		// Exactly one reference remains and a recorder is still attached:
		// this is the sole surviving client holding a residual play_count
		// from an earlier self-play alongside its recorder role.
		if len(pe.refClients) == 1 && pe.isRecording() && pe.playCount == 1 {
			pe.playCount--
			c.sink.lastPlayerDisconnected(path)
		}
	}

	c.store.removeClient(client)
}

// retirePath tears down the last reference to a path: drains recorder and
// play state, emitting the matching disconnect notifications, then deletes
// the entry. The departing client was the only remaining ref_client, so
// play_count is 0 or 1.
func (c *SessionCoordinator) retirePath(pe *pathEntry, path PathID, departing ClientID) {
	if pe.isRecording() {
		pe.recordClient = nil
		pe.recordSessionID = ""
		c.sink.recorderDisconnected(path)
	}
	if pe.playCount > 1 {
		err := InconsistencyError{Detail: "play_count inconsistent at last-reference retirement"}
		c.log.Error(err.Error(), "path", path, "client", departing, "play_count", pe.playCount)
	}
	if pe.playCount == 1 {
		pe.playCount--
		c.sink.lastPlayerDisconnected(path)
	}
	c.store.removeClientPathRef(departing, path)
}
