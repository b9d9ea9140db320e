package enums

import "fmt"

// ChargeStatus mirrors the provider's status vocabulary for a PIX charge.
type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "pending"
	ChargeStatusCompleted ChargeStatus = "completed"
	ChargeStatusExpired   ChargeStatus = "expired"
	ChargeStatusCancelled ChargeStatus = "cancelled"
)

var validChargeStatuses = []ChargeStatus{
	ChargeStatusPending,
	ChargeStatusCompleted,
	ChargeStatusExpired,
	ChargeStatusCancelled,
}

// String implements fmt.Stringer.
func (s ChargeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ChargeStatus.
func (s ChargeStatus) IsValid() bool {
	for _, candidate := range validChargeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the provider will never change this status again.
func (s ChargeStatus) IsTerminal() bool {
	switch s {
	case ChargeStatusCompleted, ChargeStatusExpired, ChargeStatusCancelled:
		return true
	}
	return false
}

// IntentStatus maps a terminal provider status onto the intent vocabulary.
// Provider and intent statuses share spelling today; the indirection keeps the
// mapping explicit should either vocabulary drift.
func (s ChargeStatus) IntentStatus() (IntentStatus, bool) {
	switch s {
	case ChargeStatusCompleted:
		return IntentStatusCompleted, true
	case ChargeStatusExpired:
		return IntentStatusExpired, true
	case ChargeStatusCancelled:
		return IntentStatusCancelled, true
	}
	return "", false
}

// ParseChargeStatus converts raw input into a ChargeStatus.
func ParseChargeStatus(value string) (ChargeStatus, error) {
	for _, candidate := range validChargeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid charge status %q", value)
}
