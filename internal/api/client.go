// Package api is the outbound HTTP adapter for the backend REST service.
// It attaches the bearer token, decodes JSON, and classifies every failure
// into the error taxonomy in errors.go. It never retries; callers decide
// what a failure means.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	base  string
	httpc *http.Client

	Auth      *AuthService
	Companies *CompanyService
	Employees *EmployeeService
	Receipts  *ReceiptService
}

// New builds a client for the backend at baseURL. The default transport
// timeout bounds every call; per-request contexts may shorten it further.
func New(baseURL string) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	c.Auth = &AuthService{c: c}
	c.Companies = &CompanyService{c: c}
	c.Employees = &EmployeeService{c: c}
	c.Receipts = &ReceiptService{c: c}
	return c
}

// WithHTTPClient swaps the underlying transport. Tests point it at an
// httptest server.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpc = hc
	return c
}

// do performs one JSON round trip. A non-empty token is attached as a
// bearer credential. out may be nil for calls without a response body.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	body, err := c.roundTrip(ctx, method, path, token, in, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// doRaw performs a round trip returning the raw response body. Used for
// binary document responses.
func (c *Client) doRaw(ctx context.Context, method, path, token string, in any) ([]byte, error) {
	return c.roundTrip(ctx, method, path, token, in, "")
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, in any, accept string) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		slog.WarnContext(ctx, "Backend rejected credentials",
			"method", method, "path", path)
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Code: resp.StatusCode, Message: serverMessage(body)}
	}
	return body, nil
}

// serverMessage extracts the human-readable reason from an error payload,
// falling back to the raw body for non-JSON responses.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
