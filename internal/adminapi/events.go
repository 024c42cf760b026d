package adminapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bluenviron/restreamd/internal/restream"
)

// Event is the JSON shape pushed to every /events subscriber.
type Event struct {
	Type string `json:"type"`
	Path string `json:"path"`
	User string `json:"user,omitempty"`
	At   string `json:"at"`
}

// writeDeadline bounds how long a slow subscriber can hold up a broadcast
// before it is dropped; a stuck websocket peer must not stall notification
// delivery to the SessionCoordinator, which runs with its lock held.
const writeDeadline = 2 * time.Second

// EventFeed fans lifecycle transitions out to connected websocket clients.
// It implements a restream.NotificationSink through Sink.
type EventFeed struct {
	log *slog.Logger

	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

// NewEventFeed builds an empty EventFeed.
func NewEventFeed(log *slog.Logger) *EventFeed {
	if log == nil {
		log = slog.Default()
	}
	return &EventFeed{
		log:      log,
		subs:     make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

// ServeHTTP upgrades the connection and registers it as a subscriber until
// the peer disconnects. It never reads application messages from the
// client: this is a push-only feed.
func (f *EventFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.subs[conn] = struct{}{}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.subs, conn)
		f.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard client frames so the connection's read side stays
	// serviced; a WebSocket peer that never reads its own control frames
	// (ping/close) eventually wedges.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcast sends ev to every currently connected subscriber, dropping any
// that fail to accept the write within writeDeadline.
func (f *EventFeed) broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		f.log.Error("failed to marshal event", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.subs {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(f.subs, conn)
			conn.Close()
		}
	}
}

// Sink returns a restream.NotificationSink that broadcasts every
// transition as an Event.
func (f *EventFeed) Sink() restream.NotificationSink {
	return restream.NotificationSink{
		FirstPlayerConnected: func(user string, path restream.PathID) {
			f.broadcast(Event{Type: "first_player_connected", Path: string(path), User: user, At: nowRFC3339()})
		},
		LastPlayerDisconnected: func(path restream.PathID) {
			f.broadcast(Event{Type: "last_player_disconnected", Path: string(path), At: nowRFC3339()})
		},
		RecorderConnected: func(user string, path restream.PathID) {
			f.broadcast(Event{Type: "recorder_connected", Path: string(path), User: user, At: nowRFC3339()})
		},
		RecorderDisconnected: func(path restream.PathID) {
			f.broadcast(Event{Type: "recorder_disconnected", Path: string(path), At: nowRFC3339()})
		},
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
