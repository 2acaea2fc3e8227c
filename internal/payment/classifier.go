package payment

import (
	"errors"
	"net"
	"strings"

	"github.com/stripe/stripe-go/v79"
)

// FailureKind determines how the orchestrator reacts to a gateway failure.
type FailureKind int

const (
	// FailureTerminal means the payer has to change something; retrying
	// the same confirmation can never succeed.
	FailureTerminal FailureKind = iota
	// FailureRetryable means infrastructure got in the way and a later
	// attempt with the same inputs may succeed.
	FailureRetryable
)

func (k FailureKind) String() string {
	if k == FailureRetryable {
		return "retryable"
	}
	return "terminal"
}

// Classify decides whether a confirmation failure is worth retrying.
// Unknown failure modes classify as terminal: silently retrying an
// unclassified error risks double-charging a card.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureTerminal
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeIdempotency:
			// Card declined, expired, bad CVC, malformed request.
			return FailureTerminal
		case stripe.ErrorTypeAPI:
			return FailureRetryable
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureRetryable
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "network") ||
		strings.Contains(s, "connection") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "api_error") {
		return FailureRetryable
	}

	return FailureTerminal
}

// IsRetryable reports whether a failure classifies as retryable. Exposed
// so the UI layer can decide up front whether to show a retry affordance.
func IsRetryable(err error) bool {
	return Classify(err) == FailureRetryable
}
