package relay

import (
	"testing"

	"github.com/bluenviron/gortsplib/v5"
	"github.com/stretchr/testify/require"
)

// ServerSession's write path requires a live connection to exercise safely;
// these tests cover the subscriber-set bookkeeping Fanout owns, which is
// pointer identity only and does not touch the session internals.

func TestFanoutSubscribeUnsubscribe(t *testing.T) {
	f := NewFanout()
	require.Equal(t, 0, f.Count())

	s1 := &gortsplib.ServerSession{}
	s2 := &gortsplib.ServerSession{}

	f.Subscribe(s1)
	require.Equal(t, 1, f.Count())

	f.Subscribe(s2)
	require.Equal(t, 2, f.Count())

	f.Unsubscribe(s1)
	require.Equal(t, 1, f.Count())
}

func TestFanoutUnsubscribeUnknownSessionIsNoop(t *testing.T) {
	f := NewFanout()
	s := &gortsplib.ServerSession{}
	f.Unsubscribe(s) // never subscribed; must not panic
	require.Equal(t, 0, f.Count())
}

func TestFanoutSubscribeIdempotent(t *testing.T) {
	f := NewFanout()
	s := &gortsplib.ServerSession{}
	f.Subscribe(s)
	f.Subscribe(s)
	require.Equal(t, 1, f.Count())
}
