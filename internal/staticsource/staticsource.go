// Package staticsource implements the secondary fixed-pattern helper
// server: a small set of always-available synthetic streams (color bars,
// solid colors) that stand in for a path with no recorder attached. It is
// a self-contained RTSP server, independent of the restream engine's path
// state machine.
package staticsource

import (
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/bluenviron/gortsplib/v5"
	"github.com/bluenviron/gortsplib/v5/pkg/base"
	"github.com/bluenviron/gortsplib/v5/pkg/description"
	"github.com/bluenviron/gortsplib/v5/pkg/format"
	"github.com/bluenviron/gortsplib/v5/pkg/format/rtph264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	psdp "github.com/pion/sdp/v3"
)

// frameInterval targets a modest 10 fps: these are placeholder streams,
// not a real encoder, so there is no reason to push more bandwidth than a
// preview needs.
const frameInterval = 100 * time.Millisecond

// mount is one running pattern: its gortsplib stream plus the goroutine
// pushing synthetic frames into it.
type mount struct {
	pattern Pattern
	stream  *gortsplib.ServerStream
	stop    chan struct{}
}

// Server is the static-pattern RTSP listener. Unlike engine.Server it has
// no admission policy and no recorder: every mount is always "playing",
// looping a tiny synthesized H264 sequence.
type Server struct {
	inner *gortsplib.Server
	log   *slog.Logger

	mu     sync.Mutex
	mounts map[string]*mount
}

// New builds a static-pattern server listening on addr, with one mount per
// entry in Patterns.
func New(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{log: log, mounts: make(map[string]*mount)}
	s.inner = &gortsplib.Server{
		Handler:     s,
		RTSPAddress: addr,
	}
	return s
}

// Start begins accepting connections and starts every pattern's frame
// generator. It returns once the listener fails.
func (s *Server) Start() error {
	for _, p := range Patterns {
		s.addMount(p)
	}
	s.log.Info("static source server starting", "addr", s.inner.RTSPAddress, "patterns", len(Patterns))
	return s.inner.StartAndWait()
}

// Close stops every pattern generator and shuts the listener down.
func (s *Server) Close() error {
	s.mu.Lock()
	for _, m := range s.mounts {
		close(m.stop)
	}
	s.mu.Unlock()
	s.inner.Close()
	return nil
}

func (s *Server) addMount(p Pattern) {
	desc := &description.Session{
		Medias: []*description.Media{{
			Type:    description.MediaTypeVideo,
			Formats: []format.Format{&format.H264{PayloadTyp: 96, PacketizationMode: 1}},
		}},
	}

	stream := &gortsplib.ServerStream{Server: s.inner, Desc: desc}
	if err := stream.Initialize(); err != nil {
		s.log.Error("failed to initialize pattern stream", "path", p.Path, "error", err)
		return
	}

	m := &mount{pattern: p, stream: stream, stop: make(chan struct{})}
	s.mu.Lock()
	s.mounts[p.Path] = m
	s.mu.Unlock()

	go s.generate(m)
}

// generate loops a synthesized IDR+non-IDR H264 sequence into the mount's
// stream at frameInterval, encoding each access unit into RTP with a fresh
// rtph264 encoder instance per mount.
func (s *Server) generate(m *mount) {
	enc := &rtph264.Encoder{PayloadType: 96}
	if err := enc.Init(); err != nil {
		s.log.Error("failed to init rtp encoder", "path", m.pattern.Path, "error", err)
		return
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			au := syntheticAccessUnit(m.pattern, seq)
			seq++

			pkts, err := enc.Encode(au)
			if err != nil {
				s.log.Error("failed to encode synthetic frame", "path", m.pattern.Path, "error", err)
				continue
			}
			for _, pkt := range pkts {
				if err := m.stream.WritePacketRTP(m.stream.Desc.Medias[0], pkt); err != nil {
					s.log.Debug("write to pattern stream failed", "path", m.pattern.Path, "error", err)
				}
			}
		}
	}
}

// syntheticAccessUnit returns a minimal H264 access unit: on every keyframe
// interval an SPS+PPS pair followed by an IDR slice NALU, otherwise a single
// non-IDR slice NALU. The slice payload's first byte is the red component of
// the pattern's fill color (or of the current bars palette entry); the rest
// is random filler. It carries no real picture data — these are placeholder
// streams, not a video encoder.
func syntheticAccessUnit(p Pattern, seq int) [][]byte {
	const keyframeEvery = 25 // roughly every 2.5s at frameInterval

	slice := make([]byte, 32)
	_, _ = rand.Read(slice[1:])
	if p.Name == "bars" {
		slice[0] = barsPalette[seq%len(barsPalette)][0]
	} else {
		slice[0] = p.Fill[0]
	}

	if seq%keyframeEvery == 0 {
		sps, pps := baselineParameterSets()
		return [][]byte{sps, pps, idrSlice(slice)}
	}
	return [][]byte{nonIDRSlice(slice)}
}

// baselineParameterSets returns a fixed, minimal SPS/PPS pair (H264
// baseline profile, 320x240) reused for every keyframe: these placeholder
// streams never change resolution, so there is no reason to re-derive them
// per frame.
func baselineParameterSets() (sps, pps []byte) {
	s := h264.SPS{
		ProfileIdc:            66,
		LevelIdc:              30,
		ID:                    0,
		ChromaFormatIdc:       1,
		Log2MaxFrameNumMinus4: 0,
		PicOrderCntType:       2,
		MaxNumRefFrames:       1,
		PicWidthInMbsMinus1:   19,  // (320/16)-1
		PicHeightInMapUnitsMinus1: 14, // (240/16)-1
		FrameMbsOnlyFlag:      true,
	}
	spsBytes, err := s.Marshal()
	if err != nil {
		spsBytes = nil
	}

	p := h264.PPS{
		PicParameterSetID:     0,
		SeqParameterSetID:     0,
		EntropyCodingModeFlag: false,
	}
	ppsBytes, err := p.Marshal()
	if err != nil {
		ppsBytes = nil
	}

	return spsBytes, ppsBytes
}

func idrSlice(payload []byte) []byte {
	nalu := make([]byte, 1+len(payload))
	nalu[0] = 0x65 // NALU type 5: IDR slice, nal_ref_idc 3
	copy(nalu[1:], payload)
	return nalu
}

func nonIDRSlice(payload []byte) []byte {
	nalu := make([]byte, 1+len(payload))
	nalu[0] = 0x41 // NALU type 1: non-IDR slice, nal_ref_idc 2
	copy(nalu[1:], payload)
	return nalu
}

// OnDescribe answers DESCRIBE with the requested pattern's stream, or
// NotFound for anything outside the fixed enumeration.
func (s *Server) OnDescribe(ctx *gortsplib.ServerHandlerOnDescribeCtx) (*base.Response, *gortsplib.ServerStream, error) {
	s.mu.Lock()
	m, ok := s.mounts[ctx.Path]
	s.mu.Unlock()
	if !ok {
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, m.stream, nil
}

// OnSetup hands out the same stream OnDescribe resolved; every pattern
// mount is play-only, so there is nothing further to negotiate.
func (s *Server) OnSetup(ctx *gortsplib.ServerHandlerOnSetupCtx) (*base.Response, *gortsplib.ServerStream, error) {
	return s.OnDescribe(&gortsplib.ServerHandlerOnDescribeCtx{
		Conn: ctx.Conn, Request: ctx.Request, Path: ctx.Path, Query: ctx.Query,
	})
}

// OnPlay admits any PLAY unconditionally: the static server carries no
// AdmissionPolicy, unlike the restream engine — it never accepts a
// recorder, so there is no per-path population to cap.
func (s *Server) OnPlay(ctx *gortsplib.ServerHandlerOnPlayCtx) (*base.Response, error) {
	return &base.Response{StatusCode: base.StatusOK}, nil
}

// Mounts lists the path and session-level SDP of every running pattern,
// for the admin API's static-source listing.
func (s *Server) Mounts() []MountInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MountInfo, 0, len(s.mounts))
	for _, m := range s.mounts {
		out = append(out, MountInfo{Path: m.pattern.Path, Name: m.pattern.Name, SDP: sessionSDP(m.pattern)})
	}
	return out
}

// MountInfo describes one running pattern for external consumers.
type MountInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
	SDP  string `json:"sdp"`
}

// sessionSDP builds a human-readable session-level SDP description for the
// pattern, independent of the per-connection SDP gortsplib's ServerStream
// negotiates internally: this one is for the admin API's static listing,
// not for wire negotiation.
func sessionSDP(p Pattern) string {
	sd := &psdp.SessionDescription{
		Origin: psdp.Origin{
			Username:       "-",
			SessionID:      1,
			SessionVersion: 1,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "0.0.0.0",
		},
		SessionName: psdp.SessionName(p.Name),
		TimeDescriptions: []psdp.TimeDescription{
			{Timing: psdp.Timing{StartTime: 0, StopTime: 0}},
		},
		MediaDescriptions: []*psdp.MediaDescription{
			{
				MediaName: psdp.MediaName{
					Media:   "video",
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{"96"},
				},
			},
		},
	}
	b, err := sd.Marshal()
	if err != nil {
		return ""
	}
	return string(b)
}
