package signin

import "errors"

// State is the position of the sign-in flow.
type State int

const (
	StateUnauthenticated State = iota
	StatePendingTwoFactor
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StatePendingTwoFactor:
		return "pending-two-factor"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Step tells the caller what to show next after a sign-in attempt.
type Step int

const (
	StepNone Step = iota
	StepAuthenticated
	StepTwoFactorRequired
)

var ErrNoPendingChallenge = errors.New("no two-factor challenge is pending")
