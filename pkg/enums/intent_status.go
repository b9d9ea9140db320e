package enums

import "fmt"

// IntentStatus tracks the persisted lifecycle of a payment intent.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusCompleted IntentStatus = "completed"
	IntentStatusExpired   IntentStatus = "expired"
	IntentStatusCancelled IntentStatus = "cancelled"
)

var validIntentStatuses = []IntentStatus{
	IntentStatusPending,
	IntentStatusCompleted,
	IntentStatusExpired,
	IntentStatusCancelled,
}

// String implements fmt.Stringer.
func (s IntentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known IntentStatus.
func (s IntentStatus) IsValid() bool {
	for _, candidate := range validIntentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s IntentStatus) IsTerminal() bool {
	switch s {
	case IntentStatusCompleted, IntentStatusExpired, IntentStatusCancelled:
		return true
	}
	return false
}

// ParseIntentStatus converts raw input into an IntentStatus.
func ParseIntentStatus(value string) (IntentStatus, error) {
	for _, candidate := range validIntentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid intent status %q", value)
}
