package restream

// AuthContext carries the identity the RTSP engine decodes from a PLAY or
// RECORD request's Basic Authorization header; Digest credentials are not
// decoded and yield the empty AuthContext. It is opaque application data as
// far as this package is concerned: the coordinator only ever forwards User
// on connect notifications.
type AuthContext struct {
	// User is the username from the request's Basic credentials, or "" if
	// the request carried none.
	User string
	// Password is the plaintext credential presented alongside User, carried
	// only as far as engine.Handler.checkAuthorized's call into
	// AuthChecker.Authenticate. Never forwarded to a NotificationSink or
	// logged.
	Password string
}

// bind extracts the user identity to attach to a connect notification.
// Kept as a named step, rather than inlined at the call site, because a
// future media-factory-role token would be threaded in here without
// touching the signatures of OnPlay and OnRecord, its two callers.
func (a AuthContext) bind() string {
	return a.User
}
