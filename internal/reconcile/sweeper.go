package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/dice-gateway/bape/internal/checkout"
	"github.com/dice-gateway/bape/pkg/config"
	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
	"github.com/dice-gateway/bape/pkg/logger"
	"github.com/dice-gateway/bape/pkg/metrics"
)

const sweepJobName = "charge-sweep"

// ReasonAbandoned marks a charge the provider never settled within the
// abandonment window. The payer most likely closed the checkout page.
const ReasonAbandoned = "abandoned"

// Resolver persists an authoritative terminal status. The checkout service's
// reconciliation write satisfies this.
type Resolver interface {
	ResolveTerminal(ctx context.Context, charge *models.ProviderCharge, status enums.ChargeStatus) error
}

// StatusSource is the provider call the sweep re-issues for stale charges.
type StatusSource interface {
	GetStatus(ctx context.Context, paymentID string) (enums.ChargeStatus, error)
}

// SweeperParams configure the reconcile sweeper.
type SweeperParams struct {
	Config   config.ReconcileConfig
	Charges  checkout.ChargeRepository
	Provider StatusSource
	Resolver Resolver
	Lock     Lock
	Logger   *logger.Logger
	Metrics  *metrics.ReconcileMetrics
}

// Sweeper re-polls charges whose sessions died with the browser: pending rows
// with a stale last_polled_at are asked again, settled ones are written through
// the same idempotent path the live sessions use.
type Sweeper struct {
	cfg      config.ReconcileConfig
	charges  checkout.ChargeRepository
	provider StatusSource
	resolver Resolver
	lock     Lock
	logg     *logger.Logger
	metrics  *metrics.ReconcileMetrics
}

// NewSweeper builds a reconcile sweeper.
func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Charges == nil {
		return nil, fmt.Errorf("charge repository is required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("provider status source is required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	cfg := params.Config
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Second
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	return &Sweeper{
		cfg:      cfg,
		charges:  params.Charges,
		provider: params.Provider,
		resolver: params.Resolver,
		lock:     params.Lock,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Run starts the sweep loop until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "sweep cycle failed", err)
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "reconcile sweeper context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "sweep cycle failed", err)
			}
		}
	}
}

func (s *Sweeper) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another sweeper instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release sweep lock", relErr)
		}
	}()

	ctx = s.logg.WithField(ctx, "job", sweepJobName)
	s.logg.Info(ctx, "sweep starting")
	start := time.Now()
	err = s.Sweep(ctx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(sweepJobName, duration)
	ctx = s.logg.WithField(ctx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(sweepJobName)
		s.logg.Error(ctx, "sweep failed", err)
		return err
	}
	s.metrics.IncSuccess(sweepJobName)
	s.logg.Info(ctx, "sweep complete")
	return nil
}

// Sweep processes one batch of stale pending charges. Per-charge failures are
// aggregated so one sick charge cannot starve the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.cfg.StaleAfter)
	charges, err := s.charges.FindStalePending(ctx, cutoff, s.cfg.BatchLimit)
	if err != nil {
		return fmt.Errorf("listing stale charges: %w", err)
	}

	var errs error
	for _, charge := range charges {
		if err := s.sweepCharge(ctx, charge); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("charge %s: %w", charge.ID, err))
		}
	}
	return errs
}

func (s *Sweeper) sweepCharge(ctx context.Context, charge models.ProviderCharge) error {
	ctx = s.logg.WithIntentID(ctx, charge.IntentID.String())
	ctx = s.logg.WithPaymentID(ctx, charge.PaymentID)

	status, err := s.provider.GetStatus(ctx, charge.PaymentID)
	if err != nil {
		// Still transient from the sweep's perspective; the next cycle retries.
		return fmt.Errorf("provider status: %w", err)
	}

	if err := s.charges.RecordPoll(ctx, charge.ID, time.Now().UTC()); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "recording sweep poll failed")
	}

	if status.IsTerminal() {
		if err := s.resolver.ResolveTerminal(ctx, &charge, status); err != nil {
			return fmt.Errorf("resolving terminal status: %w", err)
		}
		s.metrics.IncResolved(status.String())
		s.logg.Info(s.logg.WithField(ctx, "status", status.String()), "charge reconciled")
		return nil
	}

	// Provider still says pending. Past the abandonment window we stop waiting
	// and settle the charge as expired.
	if s.cfg.AbandonCharges > 0 && time.Since(charge.CreatedAt) > s.cfg.AbandonCharges {
		if err := s.charges.SetFailureReason(ctx, charge.ID, ReasonAbandoned); err != nil {
			return fmt.Errorf("marking abandoned: %w", err)
		}
		if err := s.resolver.ResolveTerminal(ctx, &charge, enums.ChargeStatusExpired); err != nil {
			return fmt.Errorf("expiring abandoned charge: %w", err)
		}
		s.metrics.IncResolved(enums.ChargeStatusExpired.String())
		s.logg.Info(ctx, "abandoned charge expired")
	}
	return nil
}
