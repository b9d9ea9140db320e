package enums

import "fmt"

// SessionState is the in-flight state of a single checkout session.
type SessionState string

const (
	SessionStateUnpaid               SessionState = "unpaid"
	SessionStateChargeRequested      SessionState = "charge_requested"
	SessionStateAwaitingConfirmation SessionState = "awaiting_confirmation"
	SessionStateCompleted            SessionState = "completed"
	SessionStateExpired              SessionState = "expired"
	SessionStateCancelled            SessionState = "cancelled"
)

var validSessionStates = []SessionState{
	SessionStateUnpaid,
	SessionStateChargeRequested,
	SessionStateAwaitingConfirmation,
	SessionStateCompleted,
	SessionStateExpired,
	SessionStateCancelled,
}

// String implements fmt.Stringer.
func (s SessionState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SessionState.
func (s SessionState) IsValid() bool {
	for _, candidate := range validSessionStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session admits no further transitions.
func (s SessionState) IsTerminal() bool {
	switch s {
	case SessionStateCompleted, SessionStateExpired, SessionStateCancelled:
		return true
	}
	return false
}

// SessionStateForCharge maps a provider charge status onto the session vocabulary.
func SessionStateForCharge(status ChargeStatus) (SessionState, error) {
	switch status {
	case ChargeStatusPending:
		return SessionStateAwaitingConfirmation, nil
	case ChargeStatusCompleted:
		return SessionStateCompleted, nil
	case ChargeStatusExpired:
		return SessionStateExpired, nil
	case ChargeStatusCancelled:
		return SessionStateCancelled, nil
	}
	return "", fmt.Errorf("invalid charge status %q", status)
}
