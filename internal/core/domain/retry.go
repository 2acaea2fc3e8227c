package domain

// RetryState is a read-only snapshot of an in-flight retry sequence.
// It exists only between the first retryable failure and a subsequent
// success, window expiry, or explicit cancellation.
type RetryState struct {
	RetryID         string `json:"retry_id"`
	RetryCount      int    `json:"retry_count"`
	MaxRetries      int    `json:"max_retries"`
	CanRetry        bool   `json:"can_retry"`
	RemainingTimeMs int64  `json:"remaining_time_ms"`
	LastError       string `json:"last_error,omitempty"`
}

// PaymentIntentResult is the value every orchestrator operation returns.
// Failures are carried in the result, never raised past the boundary.
type PaymentIntentResult struct {
	Success         bool   `json:"success"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	Error           string `json:"error,omitempty"`
	RequiresAction  bool   `json:"requires_action,omitempty"`
	ClientSecret    string `json:"client_secret,omitempty"`
}
