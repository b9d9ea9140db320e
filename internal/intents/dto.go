package intents

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
)

// IntentDTO is the admin-facing view of a payment intent.
type IntentDTO struct {
	ID          uuid.UUID          `json:"id"`
	Amount      decimal.Decimal    `json:"amount"`
	Description string             `json:"description"`
	Status      enums.IntentStatus `json:"status"`
	CheckoutURL string             `json:"checkout_url,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// FromModel converts a persisted intent into its API representation.
func FromModel(m *models.PaymentIntent, checkoutURL string) *IntentDTO {
	if m == nil {
		return nil
	}
	return &IntentDTO{
		ID:          m.ID,
		Amount:      m.Amount,
		Description: m.Description,
		Status:      m.Status,
		CheckoutURL: checkoutURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
