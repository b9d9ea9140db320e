package intents

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
)

// Repository defines persistence operations for payment intents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error)
	List(ctx context.Context) ([]models.PaymentIntent, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.IntentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes the intent lifecycle to the admin surface and the checkout flow.
type Service interface {
	Create(ctx context.Context, amount decimal.Decimal, description string) (*models.PaymentIntent, error)
	List(ctx context.Context) ([]models.PaymentIntent, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.IntentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}
