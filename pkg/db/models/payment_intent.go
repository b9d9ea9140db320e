package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dice-gateway/bape/pkg/enums"
)

// PaymentIntent is a shareable payment link with a fixed amount. Status is
// mutated only through reconciliation with the provider, never by direct edit.
type PaymentIntent struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Description string             `gorm:"column:description;not null"`
	Status      enums.IntentStatus `gorm:"column:status;type:intent_status;not null;default:'pending'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
