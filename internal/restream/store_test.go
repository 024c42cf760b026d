package restream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateStoreRegisterBidirectional(t *testing.T) {
	s := NewStateStore()
	s.register("c1", "/a")

	ce, ok := s.clientEntryFor("c1")
	require.True(t, ok)
	_, present := ce.refPaths["/a"]
	require.True(t, present)

	pe, ok := s.pathEntryFor("/a")
	require.True(t, ok)
	_, present = pe.refClients["c1"]
	require.True(t, present)
}

func TestStateStoreRemoveClientPathRefRetiresEmptyPath(t *testing.T) {
	s := NewStateStore()
	s.register("c1", "/a")

	s.removeClientPathRef("c1", "/a")
	require.False(t, s.pathExists("/a"))
}

func TestStateStoreRemoveClientPathRefKeepsNonEmptyPath(t *testing.T) {
	s := NewStateStore()
	s.register("c1", "/a")
	s.register("c2", "/a")

	s.removeClientPathRef("c1", "/a")
	require.True(t, s.pathExists("/a"))

	pe, _ := s.pathEntryFor("/a")
	_, stillThere := pe.refClients["c2"]
	require.True(t, stillThere)
}

func TestStateStoreIsRecording(t *testing.T) {
	s := NewStateStore()
	require.False(t, s.isRecording("/a"))

	pe := s.register("c1", "/a")
	require.False(t, s.isRecording("/a"))

	pe.recordClient = "c1"
	require.True(t, s.isRecording("/a"))
}

func TestStateStorePathCount(t *testing.T) {
	s := NewStateStore()
	require.Equal(t, 0, s.pathCount())

	s.register("c1", "/a")
	s.register("c2", "/b")
	require.Equal(t, 2, s.pathCount())
}
