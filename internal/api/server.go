package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/paymentd/internal/core/domain"
	"github.com/vietddude/paymentd/internal/health"
	"github.com/vietddude/paymentd/internal/payment"
)

// Server exposes the payment orchestrator over HTTP for the dashboard
// and patient portal frontends, plus health and metrics endpoints.
type Server struct {
	svc       *payment.Service
	monitor   *health.Monitor
	authToken string
	server    *http.Server
}

// NewServer creates the API server.
func NewServer(svc *payment.Service, monitor *health.Monitor, port int, authToken string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		svc:       svc,
		monitor:   monitor,
		authToken: authToken,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("POST /api/payments/intent", s.requireAuth(s.handleCreateIntent))
	mux.HandleFunc("POST /api/payments/confirm", s.requireAuth(s.handleConfirm))
	mux.HandleFunc("POST /api/payments/retry", s.requireAuth(s.handleRetry))
	mux.HandleFunc("GET /api/payments/retry/{id}", s.requireAuth(s.handleRetryState))
	mux.HandleFunc("DELETE /api/payments/retry/{id}", s.requireAuth(s.handleCancelRetry))

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") ||
			subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(auth, "Bearer ")), []byte(s.authToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req domain.IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Amount <= 0 || req.Currency == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount and currency are required"})
		return
	}

	result := s.svc.CreateIntent(r.Context(), req)
	writeJSON(w, http.StatusOK, result)
}

type confirmRequest struct {
	ClientSecret    string `json:"client_secret"`
	PaymentMethodID string `json:"payment_method_id"`
	RetryID         string `json:"retry_id,omitempty"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ClientSecret == "" || req.PaymentMethodID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_secret and payment_method_id are required"})
		return
	}

	result := s.svc.ConfirmPayment(r.Context(), req.ClientSecret, req.PaymentMethodID, req.RetryID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ClientSecret == "" || req.PaymentMethodID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_secret and payment_method_id are required"})
		return
	}

	result := s.svc.RetryPayment(r.Context(), req.ClientSecret, req.PaymentMethodID, req.RetryID)
	writeJSON(w, http.StatusOK, result)
}

// retryStateResponse decorates the raw state with a preformatted
// countdown string so the UI does not re-implement formatting.
type retryStateResponse struct {
	*domain.RetryState
	RemainingDisplay string `json:"remaining_display"`
}

// handleRetryState serves the countdown polling contract: the UI calls
// this roughly once per second. Absent state is a JSON null body with
// status 200, not an error.
func (s *Server) handleRetryState(w http.ResponseWriter, r *http.Request) {
	st := s.svc.GetRetryState(r.PathValue("id"))
	if st == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, retryStateResponse{
		RetryState:       st,
		RemainingDisplay: payment.FormatRemainingTime(st.RemainingTimeMs),
	})
}

func (s *Server) handleCancelRetry(w http.ResponseWriter, r *http.Request) {
	s.svc.CancelRetry(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	status := health.Overall(report)

	response := map[string]string{"status": string(status)}

	if status == health.StatusCritical {
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	writeJSON(w, http.StatusOK, report)
}
