package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/dice-gateway/bape/internal/intents"
	"github.com/dice-gateway/bape/pkg/config"
	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
	"github.com/dice-gateway/bape/pkg/logger"
	"github.com/dice-gateway/bape/pkg/metrics"
	"github.com/dice-gateway/bape/pkg/pixgo"
)

const (
	resolveMaxRetries     = 4
	resolveInitialBackoff = 200 * time.Millisecond
)

type service struct {
	intents intents.Service
	charges ChargeRepository

	provider ProviderClient
	manager  *Manager

	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
}

// ServiceParams configure the checkout service.
type ServiceParams struct {
	Config   config.CheckoutConfig
	Intents  intents.Service
	Charges  ChargeRepository
	Provider ProviderClient
	Logger   *logger.Logger
	Metrics  *metrics.CheckoutMetrics
}

// NewService builds the checkout service. Provider may be nil when no API key
// is configured; the flow then refuses to render payment UI instead of
// failing mid-charge.
func NewService(params ServiceParams) (Service, error) {
	if params.Intents == nil {
		return nil, fmt.Errorf("intents service is required")
	}
	if params.Charges == nil {
		return nil, fmt.Errorf("charge repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &service{
		intents:  params.Intents,
		charges:  params.Charges,
		provider: params.Provider,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}
	s.manager = NewManager(ManagerParams{
		Interval:    params.Config.PollInterval,
		TickTimeout: params.Config.PollTickTimeout,
		MaxAttempts: params.Config.MaxPollAttempts,
		Provider:    params.Provider,
		Charges:     params.Charges,
		Resolve:     s.ResolveTerminal,
		Logger:      params.Logger,
		Metrics:     params.Metrics,
	})
	return s, nil
}

func (s *service) Begin(ctx context.Context, intentID uuid.UUID) (*BeginResult, error) {
	intent, err := s.loadIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	state := enums.SessionStateUnpaid
	if intent.Status.IsTerminal() {
		state = sessionStateForIntent(intent.Status)
	} else if s.provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment provider is not configured")
	}

	return &BeginResult{
		IntentID:    intent.ID,
		Amount:      intent.Amount,
		Description: intent.Description,
		State:       state,
	}, nil
}

func (s *service) Submit(ctx context.Context, intentID uuid.UUID, payer PayerDetails) (*SubmitResult, error) {
	intent, err := s.loadIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment link already settled")
	}
	if s.provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment provider is not configured")
	}
	// The amount travelled through storage; re-check the provider minimum
	// rather than trusting the row.
	if intent.Amount.LessThan(intents.MinimumAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("amount must be at least %s", intents.MinimumAmount.StringFixed(2)))
	}

	// Replayed submits reuse the open charge instead of billing twice.
	if existing, err := s.charges.FindActiveByIntent(ctx, intentID); err == nil {
		s.manager.Ensure(existing)
		return &SubmitResult{
			IntentID:  intentID,
			PaymentID: existing.PaymentID,
			QRPayload: existing.QRPayload,
			State:     enums.SessionStateAwaitingConfirmation,
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading open charge")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"intent_id":     intent.ID.String(),
		"session_state": enums.SessionStateChargeRequested.String(),
	})
	s.logg.Info(logCtx, "checkout.charge_requested")

	created, err := s.provider.CreateCharge(ctx, pixgo.ChargeParams{
		Amount:      intent.Amount,
		Description: intent.Description,
		PayerName:   payer.Name,
		PayerTaxID:  payer.TaxID,
		PayerEmail:  payer.Email,
		PayerPhone:  payer.Phone,
		ExternalID:  intent.ID.String(),
	})
	if err != nil {
		s.metrics.IncChargeCreated(chargeResultLabel(err))
		// Charge creation failed; the payer stays unpaid and may resubmit.
		return nil, err
	}
	s.metrics.IncChargeCreated("ok")

	charge := &models.ProviderCharge{
		ID:        uuid.New(),
		IntentID:  intent.ID,
		PaymentID: created.PaymentID,
		QRPayload: created.QRPayload,
		Status:    enums.ChargeStatusPending,
	}
	if charge, err = s.charges.Create(ctx, charge); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting provider charge")
	}

	s.manager.Ensure(charge)

	return &SubmitResult{
		IntentID:  intent.ID,
		PaymentID: charge.PaymentID,
		QRPayload: charge.QRPayload,
		State:     enums.SessionStateAwaitingConfirmation,
	}, nil
}

func (s *service) Status(ctx context.Context, intentID uuid.UUID) (*StatusResult, error) {
	intent, err := s.loadIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		IntentID:     intent.ID,
		IntentStatus: intent.Status,
		State:        sessionStateForIntent(intent.Status),
	}

	charge, err := s.charges.FindLatestByIntent(ctx, intentID)
	switch {
	case err == nil:
		result.PaymentID = charge.PaymentID
		result.LastPolledAt = charge.LastPolledAt
		if !intent.Status.IsTerminal() {
			result.State = enums.SessionStateAwaitingConfirmation
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No charge yet: the payer has not submitted.
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading provider charge")
	}

	return result, nil
}

// ResolveTerminal is the single reconciliation write: it settles the charge and
// the intent idempotently, retrying transient persistence failures with backoff.
// Both the poll session and the reconcile sweeps funnel through it.
func (s *service) ResolveTerminal(ctx context.Context, charge *models.ProviderCharge, status enums.ChargeStatus) error {
	if !status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("charge status %q is not terminal", status))
	}
	intentStatus, ok := status.IntentStatus()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("charge status %q has no intent mapping", status))
	}

	backoff := retry.WithMaxRetries(resolveMaxRetries, retry.NewFibonacci(resolveInitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.charges.MarkTerminal(ctx, charge.ID, status, nil); err != nil {
			if errors.Is(err, ErrChargeSettled) {
				return err
			}
			return retry.RetryableError(err)
		}
		if err := s.intents.UpdateStatus(ctx, charge.IntentID, intentStatus); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrChargeSettled):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "charge settled to a different status")
	case pkgerrors.As(err) != nil:
		return err
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting terminal status")
	}
}

// Shutdown stops every live poll session.
func (s *service) Shutdown() {
	s.manager.Shutdown()
}

func (s *service) loadIntent(ctx context.Context, intentID uuid.UUID) (*models.PaymentIntent, error) {
	intent, err := s.intents.Get(ctx, intentID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid or expired payment link")
		}
		return nil, err
	}
	return intent, nil
}

func sessionStateForIntent(status enums.IntentStatus) enums.SessionState {
	switch status {
	case enums.IntentStatusCompleted:
		return enums.SessionStateCompleted
	case enums.IntentStatusExpired:
		return enums.SessionStateExpired
	case enums.IntentStatusCancelled:
		return enums.SessionStateCancelled
	default:
		return enums.SessionStateUnpaid
	}
}

func chargeResultLabel(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeProvider):
		return "provider_error"
	case pkgerrors.IsCode(err, pkgerrors.CodeDependency):
		return "dependency_error"
	default:
		return "error"
	}
}
