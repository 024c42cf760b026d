package adminapi

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestEventFeedBroadcastsToSubscriber(t *testing.T) {
	f := NewEventFeed(nil)
	srv := httptest.NewServer(f)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give ServeHTTP time to register the subscriber before broadcasting.
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.subs) == 1
	}, time.Second, 10*time.Millisecond)

	sink := f.Sink()
	sink.FirstPlayerConnected("alice", "/a")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	require.Equal(t, "first_player_connected", ev.Type)
	require.Equal(t, "/a", ev.Path)
	require.Equal(t, "alice", ev.User)
	require.NotEmpty(t, ev.At)
}

func TestEventFeedDropsSubscriberOnDisconnect(t *testing.T) {
	f := NewEventFeed(nil)
	srv := httptest.NewServer(f)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.subs) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.subs) == 0
	}, time.Second, 10*time.Millisecond)
}
