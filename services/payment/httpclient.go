package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the HTTP client timeout for provider API calls.
	// Webhook handling has to finish inside the provider's acknowledgment
	// window, so outbound calls stay well under it.
	DefaultTimeout = 15 * time.Second
)

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
	}
}

// apiClient is the shared HTTP plumbing for the gateway adapters: bearer
// auth, JSON bodies, bounded retries with exponential backoff on 5xx and
// transport errors. 4xx responses are returned to the caller immediately.
type apiClient struct {
	baseURL     string
	secretKey   string
	httpClient  *http.Client
	retryConfig RetryConfig
}

func newAPIClient(baseURL, secretKey string) *apiClient {
	return &apiClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		retryConfig: DefaultRetryConfig(),
	}
}

// doJSON performs a request against the provider API and decodes the JSON
// response body into out (when out is non-nil). It returns the raw body so
// adapters can keep it for the audit blob.
func (c *apiClient) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) ([]byte, int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	backoff := c.retryConfig.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.retryConfig.MaxBackoff {
				backoff = c.retryConfig.MaxBackoff
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		// Retry server-side failures only
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("provider returned %d", resp.StatusCode)
			continue
		}

		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return raw, resp.StatusCode, fmt.Errorf("failed to decode provider response: %w", err)
			}
		}
		return raw, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}
