package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/vietddude/paymentd/internal/core/domain"
)

// Config holds payment gateway settings.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	IntentURL   string        `yaml:"intent_url"`
	IntentToken string        `yaml:"intent_token"`
	Timeout     time.Duration `yaml:"timeout"`
}

// StripeConfirmer confirms card payments through the Stripe API. It is
// the opaque third-party collaborator behind the orchestrator; failures
// come back as errors for the classifier to sort out.
type StripeConfirmer struct {
	api *client.API
}

// NewStripeConfirmer creates a confirmer bound to one API key.
func NewStripeConfirmer(apiKey string) *StripeConfirmer {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeConfirmer{api: api}
}

// ConfirmCard confirms the payment intent behind clientSecret with the
// given payment method and returns the intent ID on success.
func (c *StripeConfirmer) ConfirmCard(ctx context.Context, clientSecret, paymentMethodID string) (string, error) {
	intentID := domain.IntentIDFromClientSecret(clientSecret)
	if intentID == "" {
		return "", fmt.Errorf("invalid client secret")
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		return "", fmt.Errorf("confirm payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		return pi.ID, nil
	default:
		return "", fmt.Errorf("payment intent %s not confirmed: status %s", pi.ID, pi.Status)
	}
}
