package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dice-gateway/bape/pkg/enums"
)

// PayerDetails carries the personal data the provider requires for a PIX charge.
type PayerDetails struct {
	Name  string
	TaxID string
	Email string
	Phone string
}

// BeginResult is what the checkout page renders before the payer submits.
type BeginResult struct {
	IntentID    uuid.UUID          `json:"intent_id"`
	Amount      decimal.Decimal    `json:"amount"`
	Description string             `json:"description"`
	State       enums.SessionState `json:"state"`
}

// SubmitResult is returned once a charge exists for the intent.
type SubmitResult struct {
	IntentID  uuid.UUID          `json:"intent_id"`
	PaymentID string             `json:"payment_id"`
	QRPayload string             `json:"qr_payload"`
	State     enums.SessionState `json:"state"`
}

// StatusResult reflects the persisted view of the checkout, never in-memory state.
type StatusResult struct {
	IntentID     uuid.UUID          `json:"intent_id"`
	IntentStatus enums.IntentStatus `json:"intent_status"`
	State        enums.SessionState `json:"state"`
	PaymentID    string             `json:"payment_id,omitempty"`
	LastPolledAt *time.Time         `json:"last_polled_at,omitempty"`
}
