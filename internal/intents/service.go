package intents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
)

// DefaultDescription is applied when the admin leaves the description blank.
const DefaultDescription = "Pagamento PIX"

// MinimumAmount is the smallest amount the provider accepts for a PIX charge.
var MinimumAmount = decimal.NewFromInt(10)

// ErrStatusConflict reports an attempt to move an intent out of a terminal
// status it already holds.
var ErrStatusConflict = errors.New("intent status already terminal")

type service struct {
	repo Repository
}

// NewService builds the intent service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("intents repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, amount decimal.Decimal, description string) (*models.PaymentIntent, error) {
	if amount.LessThan(MinimumAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("amount must be at least %s", MinimumAmount.StringFixed(2)))
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDescription
	}

	intent := &models.PaymentIntent{
		ID:          uuid.New(),
		Amount:      amount.Round(2),
		Description: description,
		Status:      enums.IntentStatusPending,
	}
	created, err := s.repo.Create(ctx, intent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment intent")
	}
	return created, nil
}

func (s *service) List(ctx context.Context) ([]models.PaymentIntent, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payment intents")
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	intent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment intent")
	}
	return intent, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.IntentStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid intent status %q", status))
	}
	if !status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeValidation, "intent status can only move to a terminal value")
	}

	err := s.repo.UpdateStatus(ctx, id, status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
	case errors.Is(err, ErrStatusConflict):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "payment intent already settled")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment intent status")
	}
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting payment intent")
	}
}
