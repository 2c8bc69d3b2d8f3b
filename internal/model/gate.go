package model

import "time"

// GateState is the blocking prompt currently shown, if any.
type GateState string

const (
	GateOpen          GateState = "open"
	GateAwaitingAuth  GateState = "awaiting_auth"
	GateAwaitingQuota GateState = "awaiting_quota"
)

// String returns the string representation of the gate state.
func (s GateState) String() string {
	return string(s)
}

// IsValid checks whether the gate state is a known value.
func (s GateState) IsValid() bool {
	switch s {
	case GateOpen, GateAwaitingAuth, GateAwaitingQuota:
		return true
	}
	return false
}

// AuthOutcome is how the user dismissed the sign-up prompt.
type AuthOutcome string

const (
	AuthContinuedAsGuest AuthOutcome = "continued_as_guest"
	AuthSignedUp         AuthOutcome = "signed_up"
)

// IsValid checks whether the outcome is a known value.
func (o AuthOutcome) IsValid() bool {
	switch o {
	case AuthContinuedAsGuest, AuthSignedUp:
		return true
	}
	return false
}

// QuotaSnapshot is the quota collaborator's view of whether the actor may
// start a new research session.
type QuotaSnapshot struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}
