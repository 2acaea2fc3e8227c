package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vietddude/paymentd/internal/core/domain"
)

// PaymentRepo persists payments and confirmation attempts. It satisfies
// payment.Recorder.
type PaymentRepo struct {
	db *DB
}

// NewPaymentRepo creates a new PostgreSQL payment repository.
func NewPaymentRepo(db *DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// RecordPayment inserts a newly created payment.
func (r *PaymentRepo) RecordPayment(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, intent_id, amount, currency, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	status := string(p.Status)
	if status == "" {
		status = string(domain.PaymentStatusPending)
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		p.ID,
		p.IntentID,
		p.Amount,
		p.Currency,
		p.Description,
		status,
	)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// RecordAttempt inserts a confirmation attempt and rolls its outcome up
// into the payment row.
func (r *PaymentRepo) RecordAttempt(ctx context.Context, a *domain.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (id, intent_id, retry_id, attempt, outcome, classification, error_msg, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		a.ID,
		a.IntentID,
		a.RetryID,
		a.Attempt,
		string(a.Outcome),
		a.Classification,
		a.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	status := domain.PaymentStatusProcessing
	switch a.Outcome {
	case domain.AttemptOutcomeSucceeded:
		status = domain.PaymentStatusSucceeded
	case domain.AttemptOutcomeTerminal:
		status = domain.PaymentStatusFailed
	}
	return r.UpdateStatus(ctx, a.IntentID, status)
}

// UpdateStatus sets the payment status for an intent.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, intentID string, status domain.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE intent_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, intentID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}

// GetByIntentID returns the payment for an intent, or nil when unknown.
func (r *PaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	query := `
		SELECT id, intent_id, amount, currency, description, status, created_at, updated_at
		FROM payments
		WHERE intent_id = $1
	`

	var dest struct {
		ID          string    `db:"id"`
		IntentID    string    `db:"intent_id"`
		Amount      int64     `db:"amount"`
		Currency    string    `db:"currency"`
		Description string    `db:"description"`
		Status      string    `db:"status"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	err := r.db.GetContext(ctx, &dest, query, intentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &domain.Payment{
		ID:          dest.ID,
		IntentID:    dest.IntentID,
		Amount:      dest.Amount,
		Currency:    dest.Currency,
		Description: dest.Description,
		Status:      domain.PaymentStatus(dest.Status),
		CreatedAt:   dest.CreatedAt,
		UpdatedAt:   dest.UpdatedAt,
	}, nil
}

// RecentAttempts returns the newest confirmation attempts, most recent
// first (for the status command and debugging).
func (r *PaymentRepo) RecentAttempts(ctx context.Context, limit int) ([]*domain.PaymentAttempt, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, intent_id, retry_id, attempt, outcome, classification, error_msg, created_at
		FROM payment_attempts
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []struct {
		ID             string    `db:"id"`
		IntentID       string    `db:"intent_id"`
		RetryID        string    `db:"retry_id"`
		Attempt        int       `db:"attempt"`
		Outcome        string    `db:"outcome"`
		Classification string    `db:"classification"`
		ErrorMsg       string    `db:"error_msg"`
		CreatedAt      time.Time `db:"created_at"`
	}

	err := r.db.SelectContext(ctx, &rows, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	attempts := make([]*domain.PaymentAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, &domain.PaymentAttempt{
			ID:             row.ID,
			IntentID:       row.IntentID,
			RetryID:        row.RetryID,
			Attempt:        row.Attempt,
			Outcome:        domain.AttemptOutcome(row.Outcome),
			Classification: row.Classification,
			Error:          row.ErrorMsg,
			CreatedAt:      row.CreatedAt,
		})
	}
	return attempts, nil
}
