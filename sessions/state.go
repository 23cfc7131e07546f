package sessions

import "github.com/jrsteele09/trails-auth/users"

// State is the lifecycle position of a Store.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Snapshot is a consistent copy of the session at one point in time.
// User is non-nil exactly when Token is non-empty.
type Snapshot struct {
	Token     string
	User      *users.User
	IsLoading bool
	State     State
}

// IsAuthenticated reports whether the snapshot holds a session token.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != ""
}
