package licensing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Client validates a license key against the license server on behalf of
// client software. It sends the machine fingerprint so the server can
// perform first-use binding, and remembers the last response so callers can
// gate features without re-validating on every check.
type Client struct {
	serverURL   string
	licenseKey  string
	fingerprint string
	httpClient  *http.Client

	mu   sync.RWMutex
	last *ValidateResponse
}

// NewClient creates a license client. fingerprint may be empty for the
// validation-only variant that skips device binding.
func NewClient(serverURL, licenseKey, fingerprint string) *Client {
	return &Client{
		serverURL:   serverURL,
		licenseKey:  licenseKey,
		fingerprint: fingerprint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Validate calls the license server and caches the response
func (c *Client) Validate(ctx context.Context) (*ValidateResponse, error) {
	body, err := json.Marshal(ValidateRequest{
		LicenseKey:        c.licenseKey,
		DeviceFingerprint: c.fingerprint,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("license server returned %d", resp.StatusCode)
	}

	var validateResp ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&validateResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.mu.Lock()
	c.last = &validateResp
	c.mu.Unlock()

	return &validateResp, nil
}

// Last returns the most recent validation response, or nil before the first
// successful call
func (c *Client) Last() *ValidateResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// HasFeature reports whether the last validation granted the named feature.
// False before any validation, and for every non-valid outcome.
func (c *Client) HasFeature(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.last == nil || c.last.Status != StatusValid {
		return false
	}
	for _, f := range c.last.Features {
		if f == name {
			return true
		}
	}
	return false
}
