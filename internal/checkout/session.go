package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
	"github.com/dice-gateway/bape/pkg/logger"
	"github.com/dice-gateway/bape/pkg/metrics"
)

// ReasonPollBudgetExhausted marks a charge whose session gave up polling.
// The charge stays pending so the sweeper can still obtain the provider's
// authoritative answer.
const ReasonPollBudgetExhausted = "poll_budget_exhausted"

// resolveFunc persists a terminal provider status for a charge.
type resolveFunc func(ctx context.Context, charge *models.ProviderCharge, status enums.ChargeStatus) error

// session polls the provider for one submitted checkout until the charge
// settles, the poll budget runs out, or the manager shuts down.
type session struct {
	charge models.ProviderCharge

	interval    time.Duration
	tickTimeout time.Duration
	maxAttempts int

	provider ProviderClient
	charges  ChargeRepository
	resolve  resolveFunc
	onDone   func(intentID uuid.UUID)

	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

func (s *session) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.metrics.SessionStarted()
	go s.run(ctx)
}

// stop is the single cancellation path. Safe to call from any goroutine and
// from every exit branch.
func (s *session) stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.metrics.SessionFinished()
		if s.onDone != nil {
			s.onDone(s.charge.IntentID)
		}
	})
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)
	defer s.stop()

	ctx = s.logg.WithIntentID(ctx, s.charge.IntentID.String())
	ctx = s.logg.WithPaymentID(ctx, s.charge.PaymentID)
	s.logg.Info(ctx, "poll session started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "poll session canceled")
			return
		case <-ticker.C:
			attempts++
			if s.tick(ctx) {
				return
			}
			if attempts >= s.maxAttempts {
				s.giveUp(ctx)
				return
			}
		}
	}
}

// tick runs one sequential poll. Returns true once the charge is settled.
// Ticks never overlap; if a tick outlasts the interval the ticker simply
// drops the missed fires.
func (s *session) tick(ctx context.Context) bool {
	tickCtx, cancel := context.WithTimeout(ctx, s.tickTimeout)
	defer cancel()

	start := time.Now()
	status, err := s.provider.GetStatus(tickCtx, s.charge.PaymentID)
	elapsed := time.Since(start)

	if err != nil {
		// Transient by contract: log, count, keep polling.
		s.metrics.ObservePoll("error", elapsed)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "status poll failed")
		return false
	}

	if recErr := s.charges.RecordPoll(ctx, s.charge.ID, time.Now().UTC()); recErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", recErr.Error()), "recording poll attempt failed")
	}

	if !status.IsTerminal() {
		s.metrics.ObservePoll("pending", elapsed)
		return false
	}

	s.metrics.ObservePoll(status.String(), elapsed)
	if err := s.resolve(ctx, &s.charge, status); err != nil {
		// The write will be replayed by the sweeper; stop polling anyway if the
		// provider already settled, otherwise keep trying next tick.
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			return true
		}
		s.logg.Error(ctx, "persisting terminal status failed", err)
		return false
	}
	s.metrics.IncOutcome(status.String())
	s.logg.Info(s.logg.WithField(ctx, "status", status.String()), "checkout settled")
	return true
}

func (s *session) giveUp(ctx context.Context) {
	if err := s.charges.SetFailureReason(ctx, s.charge.ID, ReasonPollBudgetExhausted); err != nil {
		s.logg.Error(ctx, "marking poll budget exhausted failed", err)
	}
	s.metrics.IncOutcome("poll_budget_exhausted")
	s.logg.Warn(ctx, "poll session exhausted its budget; deferring to reconcile sweeps")
}

// Manager tracks at most one live poll session per intent.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	interval    time.Duration
	tickTimeout time.Duration
	maxAttempts int

	provider ProviderClient
	charges  ChargeRepository
	resolve  resolveFunc
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics

	baseCtx context.Context
	stop    context.CancelFunc
}

// ManagerParams configure the session manager.
type ManagerParams struct {
	Interval    time.Duration
	TickTimeout time.Duration
	MaxAttempts int
	Provider    ProviderClient
	Charges     ChargeRepository
	Resolve     resolveFunc
	Logger      *logger.Logger
	Metrics     *metrics.CheckoutMetrics
}

const (
	defaultPollInterval    = 5 * time.Second
	defaultPollTickTimeout = 4 * time.Second
	defaultMaxPollAttempts = 120
)

// NewManager builds a session manager. Sessions outlive the submitting
// request, so they run on the manager's own context rather than the request's.
func NewManager(params ManagerParams) *Manager {
	if params.Interval <= 0 {
		params.Interval = defaultPollInterval
	}
	if params.TickTimeout <= 0 {
		params.TickTimeout = defaultPollTickTimeout
	}
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = defaultMaxPollAttempts
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &Manager{
		sessions:    make(map[uuid.UUID]*session),
		interval:    params.Interval,
		tickTimeout: params.TickTimeout,
		maxAttempts: params.MaxAttempts,
		provider:    params.Provider,
		charges:     params.Charges,
		resolve:     params.Resolve,
		logg:        params.Logger,
		metrics:     params.Metrics,
		baseCtx:     baseCtx,
		stop:        stop,
	}
}

// Ensure starts a poll session for the charge unless one is already live.
func (m *Manager) Ensure(charge *models.ProviderCharge) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, live := m.sessions[charge.IntentID]; live {
		return
	}

	s := &session{
		charge:      *charge,
		interval:    m.interval,
		tickTimeout: m.tickTimeout,
		maxAttempts: m.maxAttempts,
		provider:    m.provider,
		charges:     m.charges,
		resolve:     m.resolve,
		onDone:      m.forget,
		logg:        m.logg,
		metrics:     m.metrics,
	}
	m.sessions[charge.IntentID] = s
	s.start(m.baseCtx)
}

// Active reports whether a live session exists for the intent.
func (m *Manager) Active(intentID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, live := m.sessions[intentID]
	return live
}

func (m *Manager) forget(intentID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, intentID)
}

// Shutdown cancels every live session and waits for the loops to exit.
func (m *Manager) Shutdown() {
	m.stop()

	m.mu.Lock()
	waiting := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		waiting = append(waiting, s)
	}
	m.mu.Unlock()

	for _, s := range waiting {
		s.stop()
		<-s.done
	}
}
