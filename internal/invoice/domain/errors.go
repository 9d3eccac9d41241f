package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidAmount       = errors.New("invalid_amount")
)

// GuardViolation reports a lifecycle action requested from a state, or under
// a payment condition, that forbids it. The reason is surfaced verbatim to
// the caller; the requested mutation never happens.
type GuardViolation struct {
	Action Action
	State  State
	Reason string
}

func (e *GuardViolation) Error() string {
	return fmt.Sprintf("action %s not allowed in state %s: %s", e.Action, e.State, e.Reason)
}

func guardViolation(action Action, state State, reason string) error {
	return &GuardViolation{Action: action, State: state, Reason: reason}
}

// AsGuardViolation unwraps err into a GuardViolation, or nil.
func AsGuardViolation(err error) *GuardViolation {
	var gv *GuardViolation
	if errors.As(err, &gv) {
		return gv
	}
	return nil
}
