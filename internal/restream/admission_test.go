package restream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmissionPolicyCheckPlayUnlimited(t *testing.T) {
	s := NewStateStore()
	p := AdmissionPolicy{}
	require.Equal(t, Allow, p.CheckPlay(s, "/a"))
}

func TestAdmissionPolicyCheckPlayCountsRecorder(t *testing.T) {
	// MaxClientsPerPath=2: the comparison is playCount >= limit-1 and does
	// not special-case whether one of ref_clients is a recorder.
	s := NewStateStore()
	p := AdmissionPolicy{MaxClientsPerPath: 2}

	pe := s.register("rec", "/a")
	pe.recordClient = "rec"
	pe.recordSessionID = "s0"

	require.Equal(t, Allow, p.CheckPlay(s, "/a"), "playCount 0 < limit-1==1")

	pe.playCount = 1
	require.Equal(t, DenyForbidden, p.CheckPlay(s, "/a"), "playCount 1 >= limit-1==1, recorder present or not")
}

func TestAdmissionPolicyCheckRecord(t *testing.T) {
	s := NewStateStore()
	p := AdmissionPolicy{}
	require.Equal(t, Allow, p.CheckRecord(s, "/a"))

	pe := s.register("c1", "/a")
	pe.recordClient = "c1"
	require.Equal(t, DenyServiceUnavailable, p.CheckRecord(s, "/a"))
}

func TestAdmissionPolicyCheckNewPath(t *testing.T) {
	s := NewStateStore()
	p := AdmissionPolicy{MaxPathsCount: 1}

	require.Equal(t, Allow, p.CheckNewPath(s, "/a"), "no paths yet")

	s.register("c1", "/a")
	require.Equal(t, Allow, p.CheckNewPath(s, "/a"), "existing path is always allowed")
	require.Equal(t, DenyServiceUnavailable, p.CheckNewPath(s, "/b"))
}
