package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/paymentd/internal/core/domain"
)

// IntentClient creates payment intents through the server-side endpoint.
type IntentClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewIntentClient creates an HTTP client for the intent endpoint.
func NewIntentClient(endpoint, token string, timeout time.Duration) *IntentClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &IntentClient{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type intentResponse struct {
	Success      bool   `json:"success"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Error        string `json:"error,omitempty"`
}

// CreateIntent posts the intent request and returns the client secret.
func (c *IntentClient) CreateIntent(ctx context.Context, req domain.IntentRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("intent call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("intent endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var out intentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = "intent creation failed"
		}
		return "", errors.New(out.Error)
	}
	if out.ClientSecret == "" {
		return "", errors.New("intent response missing client secret")
	}

	return out.ClientSecret, nil
}
