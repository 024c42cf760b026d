package staticsource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatternsCoversSixFixedMounts(t *testing.T) {
	require.Len(t, Patterns, 6)

	seen := make(map[string]bool)
	for _, p := range Patterns {
		require.True(t, strings.HasPrefix(p.Path, "/"))
		require.NotEmpty(t, p.Name)
		seen[p.Path] = true
	}
	require.Len(t, seen, 6, "every pattern must have a distinct path")
}

func TestSyntheticAccessUnitEmitsParameterSetsOnKeyframe(t *testing.T) {
	p := Patterns[0] // bars

	au := syntheticAccessUnit(p, 0)
	require.Len(t, au, 3, "keyframe interval must emit sps, pps, idr slice")
	require.Equal(t, byte(0x65), au[2][0], "idr slice nalu type")
}

func TestSyntheticAccessUnitEmitsSingleSliceOffKeyframe(t *testing.T) {
	p := Patterns[1] // white

	au := syntheticAccessUnit(p, 1)
	require.Len(t, au, 1)
	require.Equal(t, byte(0x41), au[0][0], "non-idr slice nalu type")
}

func TestBaselineParameterSetsAreNonEmpty(t *testing.T) {
	sps, pps := baselineParameterSets()
	require.NotEmpty(t, sps)
	require.NotEmpty(t, pps)
}

func TestSessionSDPIncludesPatternName(t *testing.T) {
	p := Pattern{Path: "/red", Name: "red", Fill: [3]byte{0xff, 0x00, 0x00}}
	sdp := sessionSDP(p)
	require.Contains(t, sdp, "s=red")
	require.Contains(t, sdp, "m=video")
}

func TestServerMountsListsRunningPatterns(t *testing.T) {
	s := New("127.0.0.1:0", nil)
	require.NoError(t, s.inner.Start())
	defer s.Close()

	for _, p := range Patterns {
		s.addMount(p)
	}

	mounts := s.Mounts()
	require.Len(t, mounts, len(Patterns))
	for _, m := range mounts {
		require.NotEmpty(t, m.SDP)
	}
}
