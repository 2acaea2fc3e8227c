package domain

import (
	"strings"
	"time"
)

// Payment represents one logical payment created for an invoice or visit.
type Payment struct {
	ID          string        `json:"id"`
	IntentID    string        `json:"intent_id"`
	Amount      int64         `json:"amount"` // smallest currency unit
	Currency    string        `json:"currency"`
	Description string        `json:"description"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// IntentRequest is the payload sent to the server-side intent endpoint.
type IntentRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PaymentAttempt records a single confirmation attempt and its outcome.
type PaymentAttempt struct {
	ID             string         `json:"id"`
	IntentID       string         `json:"intent_id"`
	RetryID        string         `json:"retry_id"`
	Attempt        int            `json:"attempt"`
	Outcome        AttemptOutcome `json:"outcome"`
	Classification string         `json:"classification"`
	Error          string         `json:"error_msg,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type AttemptOutcome string

const (
	AttemptOutcomeSucceeded AttemptOutcome = "succeeded"
	AttemptOutcomeTerminal  AttemptOutcome = "failed_terminal"
	AttemptOutcomeRetryable AttemptOutcome = "failed_retryable"
)

// IntentIDFromClientSecret extracts the payment intent ID from a client
// secret of the form "pi_123_secret_456". Returns "" if the secret does
// not carry an ID prefix.
func IntentIDFromClientSecret(secret string) string {
	if i := strings.Index(secret, "_secret"); i > 0 {
		return secret[:i]
	}
	return ""
}
