package models

// SessionState is the lifecycle of the session slot as seen by the
// presentation layer.
type SessionState int

const (
	// SessionUnknown means restore has not completed yet; callers should
	// show a loading state rather than a login prompt.
	SessionUnknown SessionState = iota
	SessionUnauthenticated
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionUnauthenticated:
		return "unauthenticated"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "loading"
	}
}
