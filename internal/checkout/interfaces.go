package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
	"github.com/dice-gateway/bape/pkg/pixgo"
)

// ChargeRepository defines persistence operations for provider charges.
type ChargeRepository interface {
	WithTx(tx *gorm.DB) ChargeRepository
	Create(ctx context.Context, charge *models.ProviderCharge) (*models.ProviderCharge, error)
	FindActiveByIntent(ctx context.Context, intentID uuid.UUID) (*models.ProviderCharge, error)
	FindLatestByIntent(ctx context.Context, intentID uuid.UUID) (*models.ProviderCharge, error)
	FindStalePending(ctx context.Context, polledBefore time.Time, limit int) ([]models.ProviderCharge, error)
	RecordPoll(ctx context.Context, chargeID uuid.UUID, at time.Time) error
	SetFailureReason(ctx context.Context, chargeID uuid.UUID, reason string) error
	MarkTerminal(ctx context.Context, chargeID uuid.UUID, status enums.ChargeStatus, reason *string) error
}

// ProviderClient is the subset of the PixGo client the checkout flow uses.
type ProviderClient interface {
	CreateCharge(ctx context.Context, params pixgo.ChargeParams) (*pixgo.Charge, error)
	GetStatus(ctx context.Context, paymentID string) (enums.ChargeStatus, error)
}

// Service drives the payer-facing checkout flow.
type Service interface {
	Begin(ctx context.Context, intentID uuid.UUID) (*BeginResult, error)
	Submit(ctx context.Context, intentID uuid.UUID, payer PayerDetails) (*SubmitResult, error)
	Status(ctx context.Context, intentID uuid.UUID) (*StatusResult, error)
	ResolveTerminal(ctx context.Context, charge *models.ProviderCharge, status enums.ChargeStatus) error
	Shutdown()
}
