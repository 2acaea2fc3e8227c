package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/paymentd/internal/core/domain"
)

func TestCreateIntent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var req domain.IntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Amount != 5000 || req.Currency != "usd" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"clientSecret": "pi_1_secret_a",
		})
	}))
	defer srv.Close()

	c := NewIntentClient(srv.URL, "tok", 5*time.Second)
	secret, err := c.CreateIntent(context.Background(), domain.IntentRequest{Amount: 5000, Currency: "usd"})
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}
	if secret != "pi_1_secret_a" {
		t.Errorf("secret = %q", secret)
	}
}

func TestCreateIntent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"declared failure", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "amount too small"})
		}},
		{"missing secret", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewIntentClient(srv.URL, "tok", 5*time.Second)
			if _, err := c.CreateIntent(context.Background(), domain.IntentRequest{Amount: 1, Currency: "usd"}); err == nil {
				t.Error("CreateIntent succeeded, want error")
			}
		})
	}
}

func TestCreateIntent_Unreachable(t *testing.T) {
	c := NewIntentClient("http://127.0.0.1:1", "tok", time.Second)
	if _, err := c.CreateIntent(context.Background(), domain.IntentRequest{Amount: 1, Currency: "usd"}); err == nil {
		t.Error("CreateIntent succeeded against unreachable endpoint")
	}
}
