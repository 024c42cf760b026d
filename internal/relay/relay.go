// Package relay implements the minimal RTP fan-out from a path's recorder
// to its current players: the "media pipeline that actually forwards RTP
// packets" that the core state machine is deliberately unaware of.
package relay

import (
	"sync"

	"github.com/bluenviron/gortsplib/v5"
	"github.com/bluenviron/gortsplib/v5/pkg/description"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

// Fanout tracks the set of sessions currently subscribed to one path and
// forwards each incoming packet to all of them. It holds no media state of
// its own beyond the subscriber set: each packet is written directly to
// every subscribed session.
type Fanout struct {
	mu   sync.RWMutex
	subs map[*gortsplib.ServerSession]struct{}
}

// NewFanout returns an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{subs: make(map[*gortsplib.ServerSession]struct{})}
}

// Subscribe adds session to the fan-out set.
func (f *Fanout) Subscribe(session *gortsplib.ServerSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[session] = struct{}{}
}

// Unsubscribe removes session from the fan-out set. Safe to call on a
// session that was never subscribed (e.g. a RECORD-only session).
func (f *Fanout) Unsubscribe(session *gortsplib.ServerSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, session)
}

// Forward writes packet to every currently subscribed session on media. A
// slow or dead session must not block the others: WritePacketRTP is
// non-blocking per gortsplib's own contract, backed by its per-session
// write queue.
func (f *Fanout) Forward(media *description.Media, packet *rtp.Packet) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for session := range f.subs {
		_ = session.WritePacketRTP(media, packet)
	}
}

// ForwardRTCP writes an RTCP packet to every currently subscribed session on
// media, the counterpart of Forward for the control channel: receiver
// reports and the like flow from a path's recorder to its players exactly
// like RTP does, through the same subscriber set.
func (f *Fanout) ForwardRTCP(media *description.Media, packet rtcp.Packet) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for session := range f.subs {
		_ = session.WritePacketRTCP(media, packet)
	}
}

// Count reports the number of currently subscribed sessions, for metrics.
func (f *Fanout) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
