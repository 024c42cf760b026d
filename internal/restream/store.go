package restream

// clientEntry holds the paths a client currently references, in any role.
type clientEntry struct {
	refPaths map[PathID]struct{}
}

// pathEntry holds the population of a single path: who references it, how
// many active play sessions it has, and who (if anyone) is recording to it.
type pathEntry struct {
	refClients      map[ClientID]struct{}
	playCount       uint32
	recordClient    ClientID
	recordSessionID SessionID
}

func (p *pathEntry) isRecording() bool {
	return p.recordClient != nil
}

// StateStore is the in-memory bidirectional map between clients and paths.
// It performs pure mutations only: no admission policy, no notifications.
// It is not internally synchronized — callers (SessionCoordinator) must
// hold a single lock across the whole read-decide-mutate-emit sequence of
// an event, so the lock lives one level up, not here.
type StateStore struct {
	clients map[ClientID]*clientEntry
	paths   map[PathID]*pathEntry
}

// NewStateStore returns an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{
		clients: make(map[ClientID]*clientEntry),
		paths:   make(map[PathID]*pathEntry),
	}
}

// register inserts path into client's ref set and client into path's ref
// set, lazily creating either entry as needed, and returns the path entry
// so the caller can mutate it further without a second lookup.
func (s *StateStore) register(client ClientID, path PathID) *pathEntry {
	ce, ok := s.clients[client]
	if !ok {
		ce = &clientEntry{refPaths: make(map[PathID]struct{})}
		s.clients[client] = ce
	}
	ce.refPaths[path] = struct{}{}

	pe, ok := s.paths[path]
	if !ok {
		pe = &pathEntry{refClients: make(map[ClientID]struct{})}
		s.paths[path] = pe
	}
	pe.refClients[client] = struct{}{}

	return pe
}

// removeClientPathRef erases client from path's ref set. If the set becomes
// empty the path entry itself is erased. The caller must have already
// drained any role counters (play_count, record_client) on the entry.
func (s *StateStore) removeClientPathRef(client ClientID, path PathID) {
	pe, ok := s.paths[path]
	if !ok {
		return
	}
	delete(pe.refClients, client)
	if len(pe.refClients) == 0 {
		delete(s.paths, path)
	}
}

// removeClient erases the client entry. The caller must have already
// processed every path in its ref_paths set.
func (s *StateStore) removeClient(client ClientID) {
	delete(s.clients, client)
}

// isRecording reports whether path currently has a recorder attached.
func (s *StateStore) isRecording(path PathID) bool {
	pe, ok := s.paths[path]
	return ok && pe.isRecording()
}

// pathEntryFor returns the path entry, if any, without creating one.
func (s *StateStore) pathEntryFor(path PathID) (*pathEntry, bool) {
	pe, ok := s.paths[path]
	return pe, ok
}

// clientEntryFor returns the client entry, if any, without creating one.
func (s *StateStore) clientEntryFor(client ClientID) (*clientEntry, bool) {
	ce, ok := s.clients[client]
	return ce, ok
}

// pathCount returns the number of distinct live path entries.
func (s *StateStore) pathCount() int {
	return len(s.paths)
}

// pathExists reports whether path has a live entry.
func (s *StateStore) pathExists(path PathID) bool {
	_, ok := s.paths[path]
	return ok
}
