// Package engine wires a gortsplib RTSP server to a restream.SessionCoordinator.
// It is the "external collaborator" boundary the core state machine is
// deliberately ignorant of: everything here understands RTSP wire semantics,
// SDP, and transports; nothing in internal/restream does.
package engine

import (
	"encoding/base64"
	"log/slog"
	"strings"
	"sync"

	"github.com/bluenviron/gortsplib/v5"
	"github.com/bluenviron/gortsplib/v5/pkg/base"
	"github.com/bluenviron/gortsplib/v5/pkg/description"
	"github.com/google/uuid"

	"github.com/bluenviron/restreamd/internal/relay"
	"github.com/bluenviron/restreamd/internal/restream"
)

// AuthChecker mirrors the injected authentication/authorization callbacks:
// whether a path requires credentials, whether a credential pair is valid,
// and whether an authenticated user may perform a given action, collapsed
// into the single decision gortsplib's auth.Validate needs at each stage.
type AuthChecker interface {
	// AuthenticationRequired reports whether path requires credentials at all.
	AuthenticationRequired(path string, isRecord bool) bool
	// Authenticate validates a user/password pair.
	Authenticate(user, pass string) bool
	// Authorize reports whether an already-authenticated user may perform
	// the requested action ("play" or "record") on path.
	Authorize(user, action, path string) bool
}

// errUnauthorized is returned when the injected AuthChecker rejects an
// action; gortsplib logs the error alongside the 401 response it wraps.
type errUnauthorized struct {
	path   restream.PathID
	action string
}

func (e errUnauthorized) Error() string {
	return "unauthorized " + e.action + " on " + string(e.path)
}

// pathState is the per-mount relay: the recorder's stream (once announced)
// and the fan-out registry of current readers.
type pathState struct {
	stream *gortsplib.ServerStream
	fanout *relay.Fanout
}

// Handler implements gortsplib's ServerHandler capability interfaces and
// drives a restream.SessionCoordinator from the resulting callbacks. One
// Handler serves the whole restream_port listener; paths are looked up by
// their RTSP path string, which doubles as restream.PathID.
type Handler struct {
	Coordinator *restream.SessionCoordinator
	Policy      restream.AdmissionPolicy
	Auth        AuthChecker
	Log         *slog.Logger

	// server is the gortsplib.Server this Handler is bound to. It is set by
	// engine.New once the server exists (a Handler is required to construct
	// a gortsplib.Server in the first place, so this is filled in after the
	// fact rather than passed to NewHandler). OnAnnounce needs it to build
	// each path's ServerStream.
	server *gortsplib.Server

	mu        sync.Mutex
	paths     map[restream.PathID]*pathState
	sessionOf map[*gortsplib.ServerSession]*pathState
	connIDs   map[*gortsplib.ServerConn]string
}

// NewHandler builds a Handler bound to coordinator. log defaults to
// slog.Default() if nil.
func NewHandler(coordinator *restream.SessionCoordinator, checker AuthChecker, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Coordinator: coordinator,
		Auth:        checker,
		Log:         log,
		paths:       make(map[restream.PathID]*pathState),
		sessionOf:   make(map[*gortsplib.ServerSession]*pathState),
		connIDs:     make(map[*gortsplib.ServerConn]string),
	}
}

func (h *Handler) pathStateFor(path restream.PathID) *pathState {
	h.mu.Lock()
	defer h.mu.Unlock()
	ps, ok := h.paths[path]
	if !ok {
		ps = &pathState{fanout: relay.NewFanout()}
		h.paths[path] = ps
	}
	return ps
}

// pathExists reports whether the coordinator currently has a live entry for
// path, without creating one. Used to tell a MaxPathsCount admission denial
// (the path doesn't exist yet) apart from an already-recording denial (the
// path exists and has a recorder), since restream.DenyServiceUnavailable
// covers both.
func (h *Handler) pathExists(path restream.PathID) bool {
	for _, snap := range h.Coordinator.Snapshot() {
		if snap.Path == path {
			return true
		}
	}
	return false
}

// OnConnOpen is called when a TCP connection is accepted. It mints a
// correlation ID for the connection's log lines, the same way gortsplib
// itself mints session IDs internally with uuid.NewString(); ClientID
// remains the *ServerConn pointer, this ID exists purely for readable logs.
func (h *Handler) OnConnOpen(ctx *gortsplib.ServerHandlerOnConnOpenCtx) {
	id := uuid.NewString()
	h.mu.Lock()
	h.connIDs[ctx.Conn] = id
	h.mu.Unlock()

	h.Log.Debug("connection opened", "conn_id", id)
	h.Coordinator.OnClientConnected(restream.ClientID(ctx.Conn))
}

// OnConnClose is called when a TCP connection is closed. Every session
// carried on this connection has already fired OnSessionClose, so this
// only needs to retire the client's bookkeeping in the coordinator.
func (h *Handler) OnConnClose(ctx *gortsplib.ServerHandlerOnConnCloseCtx) {
	h.mu.Lock()
	id := h.connIDs[ctx.Conn]
	delete(h.connIDs, ctx.Conn)
	h.mu.Unlock()

	h.Log.Debug("connection closed", "conn_id", id, "error", ctx.Error)
	h.Coordinator.OnClientClosed(restream.ClientID(ctx.Conn))
}

// OnSessionClose fires on both graceful TEARDOWN and abrupt session loss.
// gortsplib does not distinguish the two at this callback; abrupt loss
// without a prior TEARDOWN reaches the same cleanup path, since OnConnClose
// fires regardless of cause.
func (h *Handler) OnSessionClose(ctx *gortsplib.ServerHandlerOnSessionCloseCtx) {
	h.Log.Debug("session closed", "error", ctx.Error)

	h.mu.Lock()
	if ps, ok := h.sessionOf[ctx.Session]; ok {
		ps.fanout.Unsubscribe(ctx.Session)
		delete(h.sessionOf, ctx.Session)
	}
	h.mu.Unlock()
}

// OnDescribe answers DESCRIBE by returning the path's current SDP, if a
// recorder has announced one. Absent a recorder it falls through to the
// static source server, so it always returns NotFound here rather than
// admitting a phantom path.
func (h *Handler) OnDescribe(ctx *gortsplib.ServerHandlerOnDescribeCtx) (*base.Response, *gortsplib.ServerStream, error) {
	ps := h.pathStateFor(restream.PathID(ctx.Path))
	if ps.stream == nil {
		return &base.Response{StatusCode: base.StatusNotFound}, nil, nil
	}
	return &base.Response{StatusCode: base.StatusOK}, ps.stream, nil
}

// OnAnnounce admits a RECORD announcement: runs pre_record, and on success
// allocates the ServerStream that OnDescribe and OnSetup will hand out to
// players.
func (h *Handler) OnAnnounce(ctx *gortsplib.ServerHandlerOnAnnounceCtx) (*base.Response, error) {
	path := restream.PathID(ctx.Path)
	existed := h.pathExists(path)
	if d := h.Coordinator.PreRecord(restream.ClientID(ctx.Conn), path, ""); d != restream.Allow {
		if !existed {
			return &base.Response{StatusCode: base.StatusServiceUnavailable}, restream.ErrMaxPathsCount{Path: path}
		}
		return &base.Response{StatusCode: base.StatusServiceUnavailable}, restream.ErrPathAlreadyRecording{Path: path}
	}

	stream := &gortsplib.ServerStream{Server: h.server, Desc: ctx.Description}
	if err := stream.Initialize(); err != nil {
		return &base.Response{StatusCode: base.StatusInternalServerError}, err
	}

	ps := h.pathStateFor(path)
	h.mu.Lock()
	ps.stream = stream
	h.mu.Unlock()

	return &base.Response{StatusCode: base.StatusOK}, nil
}

// OnSetup validates transport negotiation only; admission for PLAY/RECORD
// itself is decided in OnPlay/OnRecord, keeping the pre-admission check
// (before the session transitions state) separate from the actual state
// transition.
func (h *Handler) OnSetup(ctx *gortsplib.ServerHandlerOnSetupCtx) (*base.Response, *gortsplib.ServerStream, error) {
	ps := h.pathStateFor(restream.PathID(ctx.Path))
	return &base.Response{StatusCode: base.StatusOK}, ps.stream, nil
}

// OnPlay runs pre_play, and on admission notifies the coordinator and
// subscribes the session to the path's relay fan-out.
func (h *Handler) OnPlay(ctx *gortsplib.ServerHandlerOnPlayCtx) (*base.Response, error) {
	path := restream.PathID(ctx.Path)
	client := restream.ClientID(ctx.Conn)
	sessionID := restream.SessionID(ctx.Session.ID())
	auth := authContextFrom(ctx.Request)

	if resp, err := h.checkAuthorized(auth, path, "play"); err != nil {
		return resp, err
	}

	if d := h.Coordinator.PrePlay(client, path, sessionID); d != restream.Allow {
		if d == restream.DenyServiceUnavailable {
			return &base.Response{StatusCode: base.StatusServiceUnavailable}, restream.ErrMaxPathsCount{Path: path}
		}
		return &base.Response{StatusCode: base.StatusForbidden}, restream.ErrMaxClientsPerPath{Path: path}
	}

	h.Coordinator.OnPlay(client, path, sessionID, auth)

	ps := h.pathStateFor(path)
	ps.fanout.Subscribe(ctx.Session)
	h.mu.Lock()
	h.sessionOf[ctx.Session] = ps
	h.mu.Unlock()

	return &base.Response{StatusCode: base.StatusOK}, nil
}

// OnRecord runs pre_record and, on admission, notifies the coordinator.
func (h *Handler) OnRecord(ctx *gortsplib.ServerHandlerOnRecordCtx) (*base.Response, error) {
	path := restream.PathID(ctx.Path)
	client := restream.ClientID(ctx.Conn)
	sessionID := restream.SessionID(ctx.Session.ID())
	auth := authContextFrom(ctx.Request)

	if resp, err := h.checkAuthorized(auth, path, "record"); err != nil {
		return resp, err
	}

	existed := h.pathExists(path)
	if d := h.Coordinator.PreRecord(client, path, sessionID); d != restream.Allow {
		if !existed {
			return &base.Response{StatusCode: base.StatusServiceUnavailable}, restream.ErrMaxPathsCount{Path: path}
		}
		return &base.Response{StatusCode: base.StatusServiceUnavailable}, restream.ErrPathAlreadyRecording{Path: path}
	}

	h.Coordinator.OnRecord(client, path, sessionID, auth)

	ps := h.pathStateFor(path)
	h.mu.Lock()
	h.sessionOf[ctx.Session] = ps
	h.mu.Unlock()

	return &base.Response{StatusCode: base.StatusOK}, nil
}

// checkAuthorized runs the injected AuthChecker for path/action: is
// authentication required at all, and if so does the caller present a valid
// credential pair and is that user authorized for this action. A nil Auth
// means authentication is disabled entirely, and every action is permitted.
func (h *Handler) checkAuthorized(auth restream.AuthContext, path restream.PathID, action string) (*base.Response, error) {
	if h.Auth == nil {
		return nil, nil
	}
	isRecord := action == "record"
	if !h.Auth.AuthenticationRequired(string(path), isRecord) {
		return nil, nil
	}
	if auth.User == "" ||
		!h.Auth.Authenticate(auth.User, auth.Password) ||
		!h.Auth.Authorize(auth.User, action, string(path)) {
		return &base.Response{StatusCode: base.StatusUnauthorized}, errUnauthorized{path: path, action: action}
	}
	return nil, nil
}

// OnPacketRTP forwards a recorder's packet to every subscribed player on
// the same path. This is the media pipeline the state machine itself stays
// ignorant of; it is a thin fan-out, not a transcoder.
func (h *Handler) OnPacketRTP(ctx *gortsplib.ServerHandlerOnPacketRTPCtx) {
	h.mu.Lock()
	ps, ok := h.sessionOf[ctx.Session]
	h.mu.Unlock()
	if !ok {
		return
	}
	media := mediaByTrackID(ps, ctx.TrackID)
	if media == nil {
		return
	}
	ps.fanout.Forward(media, ctx.Packet)
}

// OnPacketRTCP forwards a recorder's RTCP packet (receiver reports and the
// like) to every subscribed player, the exact counterpart of OnPacketRTP for
// the control channel.
func (h *Handler) OnPacketRTCP(ctx *gortsplib.ServerHandlerOnPacketRTCPCtx) {
	h.mu.Lock()
	ps, ok := h.sessionOf[ctx.Session]
	h.mu.Unlock()
	if !ok {
		return
	}
	media := mediaByTrackID(ps, ctx.TrackID)
	if media == nil {
		return
	}
	ps.fanout.ForwardRTCP(media, ctx.Packet)
}

// mediaByTrackID resolves the numeric track index gortsplib reports in a
// packet ctx into the *description.Media the path's stream was announced
// with, since WritePacketRTP/WritePacketRTCP address media by pointer, not
// by index.
func mediaByTrackID(ps *pathState, trackID int) *description.Media {
	if ps.stream == nil || ps.stream.Desc == nil {
		return nil
	}
	medias := ps.stream.Desc.Medias
	if trackID < 0 || trackID >= len(medias) {
		return nil
	}
	return medias[trackID]
}

// authContextFrom extracts the credentials carried by a Basic Authorization
// header, the same encoding gortsplib's own AuthServer validates against in
// ValidateHeader. Digest credentials never carry a plaintext password usable
// here, and requests without credentials are anonymous: both cases bind the
// empty AuthContext, matching AuthBinding's rule that the empty string
// denotes the anonymous role.
func authContextFrom(req *base.Request) restream.AuthContext {
	if req == nil {
		return restream.AuthContext{}
	}
	values, ok := req.Header["Authorization"]
	if !ok || len(values) == 0 {
		return restream.AuthContext{}
	}
	header := values[0]
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return restream.AuthContext{}
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return restream.AuthContext{}
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return restream.AuthContext{}
	}
	return restream.AuthContext{User: user, Password: pass}
}
