// Package reservex is the HTTP client for the reservations backend.
//
// The backend is a black box: every capability is "send a request, get back
// {success: bool, ...payload}". This package owns the wire shapes and the
// envelope handling; it does not interpret booking semantics.
package reservex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotFound is returned when the backend answers success=false with a 404,
// e.g. no pricing record exists for a (ship, route) pair. Callers distinguish
// "absent" (fallbacks may apply) from transport or server errors.
var ErrNotFound = errors.New("reservex: not found")

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
}

// envelope is the common part of every backend response.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (c Client) doJSON(ctx context.Context, method, path string, reqBody any, respBody any) (int, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.BaseURL == "" {
		return 0, fmt.Errorf("reservex: missing base url")
	}

	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, readErr
	}

	var env envelope
	if len(b) > 0 {
		// Tolerate payloads without the envelope fields; success is implied by 2xx then.
		_ = json.Unmarshal(b, &env)
	}

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if env.Error != "" {
			return resp.StatusCode, fmt.Errorf("reservations api error: status=%d %s", resp.StatusCode, env.Error)
		}
		// Surface the raw body so callers can see what the backend rejected.
		return resp.StatusCode, fmt.Errorf("reservations api error: status=%d body=%s", resp.StatusCode, string(b))
	}
	if len(b) > 0 && !env.Success {
		if env.Error != "" {
			return resp.StatusCode, fmt.Errorf("reservations api rejected: %s", env.Error)
		}
		return resp.StatusCode, fmt.Errorf("reservations api rejected request")
	}

	if respBody != nil && len(b) > 0 {
		if err := json.Unmarshal(b, respBody); err != nil {
			return resp.StatusCode, fmt.Errorf("decode reservations response failed: %w body=%s", err, string(b))
		}
	}

	return resp.StatusCode, nil
}
