package restream

// NotificationSink receives lifecycle transition events from a
// SessionCoordinator. Every callback is optional: a nil field is simply
// skipped. Implementations must be non-blocking and must not call back
// into the SessionCoordinator — the coordinator invokes these while
// holding its lock.
type NotificationSink struct {
	// FirstPlayerConnected fires when a path's play_count transitions 0 -> 1.
	FirstPlayerConnected func(user string, path PathID)
	// LastPlayerDisconnected fires when a path's play_count transitions 1 -> 0.
	LastPlayerDisconnected func(path PathID)
	// RecorderConnected fires when a path acquires a recorder.
	RecorderConnected func(user string, path PathID)
	// RecorderDisconnected fires when a path loses its recorder.
	RecorderDisconnected func(path PathID)
}

func (n NotificationSink) firstPlayerConnected(user string, path PathID) {
	if n.FirstPlayerConnected != nil {
		n.FirstPlayerConnected(user, path)
	}
}

func (n NotificationSink) lastPlayerDisconnected(path PathID) {
	if n.LastPlayerDisconnected != nil {
		n.LastPlayerDisconnected(path)
	}
}

func (n NotificationSink) recorderConnected(user string, path PathID) {
	if n.RecorderConnected != nil {
		n.RecorderConnected(user, path)
	}
}

func (n NotificationSink) recorderDisconnected(path PathID) {
	if n.RecorderDisconnected != nil {
		n.RecorderDisconnected(path)
	}
}

// MultiSink fans a single transition out to several sinks, in order. Used
// to attach both a metrics sink and a websocket event sink to the same
// coordinator without either being aware of the other.
func MultiSink(sinks ...NotificationSink) NotificationSink {
	return NotificationSink{
		FirstPlayerConnected: func(user string, path PathID) {
			for _, s := range sinks {
				s.firstPlayerConnected(user, path)
			}
		},
		LastPlayerDisconnected: func(path PathID) {
			for _, s := range sinks {
				s.lastPlayerDisconnected(path)
			}
		},
		RecorderConnected: func(user string, path PathID) {
			for _, s := range sinks {
				s.recorderConnected(user, path)
			}
		},
		RecorderDisconnected: func(path PathID) {
			for _, s := range sinks {
				s.recorderDisconnected(path)
			}
		},
	}
}
