package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dice-gateway/bape/pkg/enums"
)

// ProviderCharge records a PIX charge issued at the provider for an intent.
// At most one non-terminal charge exists per intent (partial unique index).
// The row doubles as the reconcile worker's work queue: non-terminal charges
// with a stale last_polled_at are re-polled until the provider settles them.
type ProviderCharge struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IntentID      uuid.UUID          `gorm:"column:intent_id;type:uuid;not null"`
	PaymentID     string             `gorm:"column:payment_id;not null"`
	QRPayload     string             `gorm:"column:qr_payload;not null"`
	Status        enums.ChargeStatus `gorm:"column:status;type:charge_status;not null;default:'pending'"`
	FailureReason *string            `gorm:"column:failure_reason"`
	PollAttempts  int                `gorm:"column:poll_attempts;not null;default:0"`
	LastPolledAt  *time.Time         `gorm:"column:last_polled_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Intent *PaymentIntent `gorm:"foreignKey:IntentID"`
}
