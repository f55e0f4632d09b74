package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/brandpulse/internal/util"
)

func newHTTPClient(cfg Config, defaultTimeout time.Duration) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	return &http.Client{Timeout: timeout, Transport: transport}
}

// apiError is a non-200 answer from a provider API
type apiError struct {
	Provider string
	Code     int
	Message  string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Code, e.Message)
}

// postJSON sends payload and decodes a 200 answer into out. errMessage
// extracts a readable message from an error body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload, out any, provider string, errMessage func([]byte) string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if errMessage != nil {
			if m := errMessage(respBody); m != "" {
				msg = m
			}
		}
		apiErr := &apiError{Provider: provider, Code: resp.StatusCode, Message: truncate(msg, 300)}
		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnavailable, apiErr)
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
