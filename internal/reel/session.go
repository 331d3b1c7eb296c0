package reel

// SessionState is the lifecycle state of a reaction session.
type SessionState int

const (
	// StateIdle means no session is armed (nothing on screen yet).
	StateIdle SessionState = iota
	// StateRunning means the liveness timer is polling the classifier.
	StateRunning
	// StateConfirmed means a smile was detected, or the post was already
	// liked when displayed. Terminal.
	StateConfirmed
	// StateExpired means the timer ran out without a smile. Terminal; the
	// gate stays closed on this path.
	StateExpired
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateConfirmed:
		return "confirmed"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the ephemeral verification state for the post
// currently on screen. It is discarded whenever the displayed post changes.
type Session struct {
	PostID  uint
	State   SessionState
	Elapsed int
	Liked   bool
}

// GateOpen reports whether a like may be submitted for this session: true
// iff the post is already liked or the smile was confirmed. A running or
// expired session keeps the gate closed; expiry never falls back to
// allowing an unverified like.
func (s Session) GateOpen() bool {
	return s.Liked || s.State == StateConfirmed
}
