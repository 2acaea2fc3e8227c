package payment

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/paymentd/internal/core/domain"
	"github.com/vietddude/paymentd/internal/metrics"
)

// retryEntry is the mutable per-key state behind a RetryState snapshot.
// Remaining time and retryability are derived from the deadline at read
// time, so no per-entry timer is needed.
type retryEntry struct {
	retryCount int
	maxRetries int
	deadline   time.Time
	lastError  string
	inFlight   bool
}

// RetryStore is the process-wide retry state table, keyed by retry ID.
// It owns every entry exclusively: the orchestrator creates entries on
// the first retryable failure and clears them on success; expired
// entries are removed lazily on read and by the sweeper.
type RetryStore struct {
	mu      sync.Mutex
	entries map[string]*retryEntry
	now     func() time.Time
}

// NewRetryStore creates an empty retry store.
func NewRetryStore() *RetryStore {
	return &RetryStore{
		entries: make(map[string]*retryEntry),
		now:     time.Now,
	}
}

func (e *retryEntry) snapshot(id string, now time.Time) domain.RetryState {
	remaining := e.deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return domain.RetryState{
		RetryID:         id,
		RetryCount:      e.retryCount,
		MaxRetries:      e.maxRetries,
		CanRetry:        remaining > 0 && e.retryCount < e.maxRetries,
		RemainingTimeMs: remaining.Milliseconds(),
		LastError:       e.lastError,
	}
}

// Init creates retry state for id with a full window and zero attempts.
// Calling it again for the same id overwrites the previous entry (last
// writer wins); callers must not Init twice for one attempt sequence.
func (s *RetryStore) Init(id string, window time.Duration, maxRetries int) domain.RetryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &retryEntry{
		maxRetries: maxRetries,
		deadline:   s.now().Add(window),
	}
	s.entries[id] = e
	metrics.ActiveRetryStates.Set(float64(len(s.entries)))
	return e.snapshot(id, s.now())
}

// Get returns a snapshot of the retry state for id. Absent state is a
// normal condition meaning no retry is in progress. An entry whose
// window has elapsed is removed and reads as absent.
func (s *RetryStore) Get(id string) (domain.RetryState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.RetryState{}, false
	}
	now := s.now()
	if !e.deadline.After(now) {
		delete(s.entries, id)
		metrics.ActiveRetryStates.Set(float64(len(s.entries)))
		metrics.RetryWindowsExpired.Inc()
		return domain.RetryState{}, false
	}
	return e.snapshot(id, now), true
}

// RecordAttempt increments the attempt counter for id. It no-ops when
// the state is absent and never counts past maxRetries.
func (s *RetryStore) RecordAttempt(id string) (domain.RetryState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.RetryState{}, false
	}
	if e.retryCount < e.maxRetries {
		e.retryCount++
	}
	return e.snapshot(id, s.now()), true
}

// SetLastError records the most recent failure message for id.
func (s *RetryStore) SetLastError(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.lastError = msg
	}
}

// Tick shrinks the remaining window for id by elapsed, clamping at zero.
// A clamped entry reads as expired on the next Get.
func (s *RetryStore) Tick(id string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.deadline = e.deadline.Add(-elapsed)
	if now := s.now(); e.deadline.Before(now) {
		e.deadline = now
	}
}

// Clear removes the retry state for id. Idempotent.
func (s *RetryStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		metrics.ActiveRetryStates.Set(float64(len(s.entries)))
	}
}

// BeginFlight marks id as having a retry in flight. It returns false if
// another retry for the same id is already running, serializing per-key
// access so concurrent callers cannot race past the attempt budget.
func (s *RetryStore) BeginFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.inFlight {
		return false
	}
	e.inFlight = true
	return true
}

// EndFlight releases the in-flight mark for id. Safe to call after the
// entry has been cleared.
func (s *RetryStore) EndFlight(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.inFlight = false
	}
}

// Sweep removes every entry whose window has elapsed and returns the
// number removed. Exhausted entries stay until their deadline so callers
// can still read the distinguishing retry count.
func (s *RetryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !e.deadline.After(now) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.ActiveRetryStates.Set(float64(len(s.entries)))
		metrics.RetryWindowsExpired.Add(float64(removed))
	}
	return removed
}

// StartSweeper runs Sweep on a fixed cadence until ctx is cancelled, so
// abandoned flows cannot leak entries past their window.
func (s *RetryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Len returns the number of tracked entries.
func (s *RetryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
