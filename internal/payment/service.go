package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/paymentd/internal/core/domain"
	"github.com/vietddude/paymentd/internal/metrics"
)

// Exact messages the UI keys off; do not reword.
const (
	msgRetryNotAvailable  = "Retry not available or expired"
	msgMaxRetriesExceeded = "Maximum retry attempts exceeded"
	msgRetryInProgress    = "Retry already in progress"
)

// IntentCreator creates a payment intent on the server side and returns
// its client secret.
type IntentCreator interface {
	CreateIntent(ctx context.Context, req domain.IntentRequest) (clientSecret string, err error)
}

// CardConfirmer performs the third-party card confirmation call and
// returns the confirmed payment intent ID.
type CardConfirmer interface {
	ConfirmCard(ctx context.Context, clientSecret, paymentMethodID string) (intentID string, err error)
}

// Recorder persists payments and confirmation attempts. Optional; a nil
// recorder disables persistence.
type Recorder interface {
	RecordPayment(ctx context.Context, p *domain.Payment) error
	RecordAttempt(ctx context.Context, a *domain.PaymentAttempt) error
}

// ConfirmedCache remembers intents that already confirmed, so a
// duplicate confirm call short-circuits instead of hitting the gateway
// again. Optional.
type ConfirmedCache interface {
	IsConfirmed(ctx context.Context, intentID string) (bool, error)
	MarkConfirmed(ctx context.Context, intentID string) error
}

// RetryLocker guards a retry ID across service instances. Optional; the
// in-process flight guard already serializes within one instance.
type RetryLocker interface {
	AcquireRetryLock(ctx context.Context, retryID string, ttl time.Duration) (bool, error)
	ReleaseRetryLock(ctx context.Context, retryID string) error
}

// Config holds retry engine settings.
type Config struct {
	MaxRetries int
	Window     time.Duration
	Backoff    []time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Window == 0 {
		c.Window = 10 * time.Minute
	}
	if len(c.Backoff) == 0 {
		c.Backoff = DefaultBackoffTable
	}
	return c
}

// Deps holds the collaborators a Service orchestrates. Intents, Cards
// and Store are required; the rest are optional.
type Deps struct {
	Intents   IntentCreator
	Cards     CardConfirmer
	Store     *RetryStore
	Recorder  Recorder
	Confirmed ConfirmedCache
	Locks     RetryLocker
	Log       *slog.Logger
}

// Service sequences create intent, confirm, classify and retry-or-give-up.
// It is the single entry point callers use; every operation returns a
// PaymentIntentResult and never lets a lower-level fault escape.
type Service struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
}

// NewService creates a payment orchestrator.
func NewService(cfg Config, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:  cfg.withDefaults(),
		deps: deps,
		log:  log.With("component", "payment"),
	}
}

// CreateIntent calls the server-side intent endpoint. Transport failures
// fold into the result value.
func (s *Service) CreateIntent(ctx context.Context, req domain.IntentRequest) domain.PaymentIntentResult {
	clientSecret, err := s.deps.Intents.CreateIntent(ctx, req)
	if err != nil {
		s.log.Warn("Intent creation failed", "error", err)
		return domain.PaymentIntentResult{Success: false, Error: err.Error()}
	}

	metrics.IntentsCreated.Inc()
	intentID := domain.IntentIDFromClientSecret(clientSecret)

	if s.deps.Recorder != nil {
		now := time.Now()
		p := &domain.Payment{
			ID:          uuid.NewString(),
			IntentID:    intentID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: req.Description,
			Status:      domain.PaymentStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.deps.Recorder.RecordPayment(ctx, p); err != nil {
			s.log.Warn("Failed to record payment", "intent_id", intentID, "error", err)
		}
	}

	return domain.PaymentIntentResult{
		Success:         true,
		PaymentIntentID: intentID,
		ClientSecret:    clientSecret,
	}
}

// ConfirmPayment confirms a card payment. On success any retry state for
// retryID is cleared. A terminal failure returns a plain failure result;
// a retryable one initializes retry state (if this is the first failure
// of the sequence) and flags the caller to drive the retry cycle.
// An empty retryID defaults to the client secret.
func (s *Service) ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID, retryID string) domain.PaymentIntentResult {
	if retryID == "" {
		retryID = clientSecret
	}

	if s.deps.Confirmed != nil {
		if intentID := domain.IntentIDFromClientSecret(clientSecret); intentID != "" {
			ok, err := s.deps.Confirmed.IsConfirmed(ctx, intentID)
			if err != nil {
				s.log.Warn("Confirmed cache lookup failed", "intent_id", intentID, "error", err)
			} else if ok {
				s.deps.Store.Clear(retryID)
				return domain.PaymentIntentResult{Success: true, PaymentIntentID: intentID}
			}
		}
	}

	start := time.Now()
	intentID, err := s.deps.Cards.ConfirmCard(ctx, clientSecret, paymentMethodID)
	metrics.ConfirmLatency.Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.ConfirmAttempts.WithLabelValues("succeeded").Inc()
		s.deps.Store.Clear(retryID)
		if s.deps.Confirmed != nil {
			if cerr := s.deps.Confirmed.MarkConfirmed(ctx, intentID); cerr != nil {
				s.log.Warn("Failed to mark intent confirmed", "intent_id", intentID, "error", cerr)
			}
		}
		s.recordAttempt(ctx, clientSecret, retryID, domain.AttemptOutcomeSucceeded, "", "")
		return domain.PaymentIntentResult{Success: true, PaymentIntentID: intentID}
	}

	kind := Classify(err)
	s.log.Info("Card confirmation failed",
		"retry_id", retryID, "classification", kind.String(), "error", err)

	if kind == FailureRetryable {
		metrics.ConfirmAttempts.WithLabelValues("failed_retryable").Inc()
		// Only the first transient failure of a sequence opens the
		// window; later failures must not reset the attempt count.
		if _, ok := s.deps.Store.Get(retryID); !ok {
			s.deps.Store.Init(retryID, s.cfg.Window, s.cfg.MaxRetries)
		}
		s.deps.Store.SetLastError(retryID, err.Error())
		s.recordAttempt(ctx, clientSecret, retryID, domain.AttemptOutcomeRetryable, kind.String(), err.Error())
		return domain.PaymentIntentResult{
			Success:        false,
			Error:          err.Error(),
			RequiresAction: true,
			ClientSecret:   clientSecret,
		}
	}

	metrics.ConfirmAttempts.WithLabelValues("failed_terminal").Inc()
	s.recordAttempt(ctx, clientSecret, retryID, domain.AttemptOutcomeTerminal, kind.String(), err.Error())
	return domain.PaymentIntentResult{Success: false, Error: err.Error()}
}

// RetryPayment re-attempts a failed confirmation after the backoff wait
// for the current attempt. It fails fast, without waiting or mutating
// state, when no retry window is open or the budget is spent.
func (s *Service) RetryPayment(ctx context.Context, clientSecret, paymentMethodID, retryID string) domain.PaymentIntentResult {
	if retryID == "" {
		retryID = clientSecret
	}

	st, ok := s.deps.Store.Get(retryID)
	if !ok {
		return domain.PaymentIntentResult{Success: false, Error: msgRetryNotAvailable}
	}
	if st.RetryCount >= st.MaxRetries {
		metrics.RetriesExhausted.Inc()
		return domain.PaymentIntentResult{Success: false, Error: msgMaxRetriesExceeded}
	}
	if !st.CanRetry {
		return domain.PaymentIntentResult{Success: false, Error: msgRetryNotAvailable}
	}

	if !s.deps.Store.BeginFlight(retryID) {
		return domain.PaymentIntentResult{Success: false, Error: msgRetryInProgress}
	}
	defer s.deps.Store.EndFlight(retryID)

	if s.deps.Locks != nil {
		ttl := backoffFor(s.cfg.Backoff, st.RetryCount) + s.cfg.Window
		acquired, err := s.deps.Locks.AcquireRetryLock(ctx, retryID, ttl)
		if err != nil {
			s.log.Warn("Retry lock unavailable, proceeding unlocked", "retry_id", retryID, "error", err)
		} else if !acquired {
			return domain.PaymentIntentResult{Success: false, Error: msgRetryInProgress}
		} else {
			defer func() {
				if err := s.deps.Locks.ReleaseRetryLock(ctx, retryID); err != nil {
					s.log.Warn("Failed to release retry lock", "retry_id", retryID, "error", err)
				}
			}()
		}
	}

	metrics.RetriesScheduled.Inc()
	if err := waitBackoff(ctx, backoffFor(s.cfg.Backoff, st.RetryCount)); err != nil {
		return domain.PaymentIntentResult{Success: false, Error: err.Error()}
	}

	s.deps.Store.RecordAttempt(retryID)
	return s.ConfirmPayment(ctx, clientSecret, paymentMethodID, retryID)
}

// GetRetryState returns the retry state for retryID, or nil when no
// retry is in progress. Polled by the UI to drive countdown displays.
func (s *Service) GetRetryState(retryID string) *domain.RetryState {
	st, ok := s.deps.Store.Get(retryID)
	if !ok {
		return nil
	}
	return &st
}

// CancelRetry discards retry state for retryID, e.g. when the payer
// navigates away from the flow. Idempotent.
func (s *Service) CancelRetry(retryID string) {
	s.deps.Store.Clear(retryID)
}

func (s *Service) recordAttempt(ctx context.Context, clientSecret, retryID string, outcome domain.AttemptOutcome, classification, errMsg string) {
	if s.deps.Recorder == nil {
		return
	}
	attempt := 0
	if st, ok := s.deps.Store.Get(retryID); ok {
		attempt = st.RetryCount
	}
	a := &domain.PaymentAttempt{
		ID:             uuid.NewString(),
		IntentID:       domain.IntentIDFromClientSecret(clientSecret),
		RetryID:        retryID,
		Attempt:        attempt,
		Outcome:        outcome,
		Classification: classification,
		Error:          errMsg,
		CreatedAt:      time.Now(),
	}
	if err := s.deps.Recorder.RecordAttempt(ctx, a); err != nil {
		s.log.Warn("Failed to record attempt", "retry_id", retryID, "error", err)
	}
}
