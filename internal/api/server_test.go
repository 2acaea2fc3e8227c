package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/paymentd/internal/core/domain"
	"github.com/vietddude/paymentd/internal/health"
	"github.com/vietddude/paymentd/internal/payment"
)

const testToken = "test-token"

// stubGateway answers both collaborator roles so handler tests need no
// network.
type stubGateway struct {
	confirmErr error
}

func (g *stubGateway) CreateIntent(ctx context.Context, req domain.IntentRequest) (string, error) {
	return "pi_9_secret_x", nil
}

func (g *stubGateway) ConfirmCard(ctx context.Context, clientSecret, paymentMethodID string) (string, error) {
	if g.confirmErr != nil {
		return "", g.confirmErr
	}
	return domain.IntentIDFromClientSecret(clientSecret), nil
}

func newTestServer(gw *stubGateway) *Server {
	svc := payment.NewService(payment.Config{
		Window:  time.Minute,
		Backoff: []time.Duration{0},
	}, payment.Deps{
		Intents: gw,
		Cards:   gw,
		Store:   payment.NewRetryStore(),
	})
	return NewServer(svc, health.NewMonitor(), 0, testToken)
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	h := newTestServer(&stubGateway{}).Handler()

	tests := []struct {
		name   string
		header string
		expect int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong token", "nope", http.StatusUnauthorized},
		{"valid token", testToken, http.StatusOK},
	}
	for _, tt := range tests {
		body := `{"amount": 100, "currency": "usd"}`
		rec := do(t, h, http.MethodPost, "/api/payments/intent", tt.header, body)
		if rec.Code != tt.expect {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.expect)
		}
	}
}

func TestHealthUnauthenticated(t *testing.T) {
	h := newTestServer(&stubGateway{}).Handler()

	rec := do(t, h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", resp["status"])
	}
}

func TestCreateIntent_Validation(t *testing.T) {
	h := newTestServer(&stubGateway{}).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not-json"},
		{"zero amount", `{"amount": 0, "currency": "usd"}`},
		{"missing currency", `{"amount": 100}`},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodPost, "/api/payments/intent", testToken, tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
	}
}

func TestConfirm_Validation(t *testing.T) {
	h := newTestServer(&stubGateway{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/payments/confirm", testToken, `{"client_secret": "pi_1_secret_a"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRetryState_Absent(t *testing.T) {
	h := newTestServer(&stubGateway{}).Handler()

	rec := do(t, h, http.MethodGet, "/api/payments/retry/unknown", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "null" {
		t.Errorf("body = %q, want null", body)
	}
}

func TestRetryLifecycle(t *testing.T) {
	h := newTestServer(&stubGateway{confirmErr: errors.New("api_error: upstream flake")}).Handler()

	confirmBody := `{"client_secret": "pi_1_secret_a", "payment_method_id": "pm_card"}`
	rec := do(t, h, http.MethodPost, "/api/payments/confirm", testToken, confirmBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d", rec.Code)
	}
	var result domain.PaymentIntentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid confirm body: %v", err)
	}
	if result.Success || !result.RequiresAction {
		t.Fatalf("confirm result = %+v, want transient failure", result)
	}

	// Countdown poll: state keyed by the client secret.
	rec = do(t, h, http.MethodGet, "/api/payments/retry/pi_1_secret_a", testToken, "")
	var state struct {
		domain.RetryState
		RemainingDisplay string `json:"remaining_display"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("invalid state body: %v", err)
	}
	if state.RetryCount != 0 || state.MaxRetries != 3 || !state.CanRetry {
		t.Errorf("state = %+v, want count=0 max=3 canRetry=true", state.RetryState)
	}
	if state.RemainingDisplay == "" {
		t.Error("remaining_display not populated")
	}

	rec = do(t, h, http.MethodDelete, "/api/payments/retry/pi_1_secret_a", testToken, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("cancel status = %d, want 204", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/payments/retry/pi_1_secret_a", testToken, "")
	if body := strings.TrimSpace(rec.Body.String()); body != "null" {
		t.Errorf("state after cancel = %q, want null", body)
	}
}

func TestRetry_NoWindow(t *testing.T) {
	h := newTestServer(&stubGateway{}).Handler()

	body := `{"client_secret": "pi_1_secret_a", "payment_method_id": "pm_card"}`
	rec := do(t, h, http.MethodPost, "/api/payments/retry", testToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result domain.PaymentIntentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if result.Success || result.Error != "Retry not available or expired" {
		t.Errorf("result = %+v, want retry-not-available failure", result)
	}
}
