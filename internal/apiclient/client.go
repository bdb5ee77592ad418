// Package apiclient performs authenticated HTTP calls against the clinic API.
//
// The client is deliberately thin: no retries, no token refresh, no request
// coalescing. A 401 is returned to the caller like any other failure.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk-go/internal/apierror"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 10 << 20

var ErrInvalidBaseURL = errors.New("invalid API base URL")

// TokenSource yields the current bearer token, or "" when signed out. It is
// consulted on every call and never cached.
type TokenSource interface {
	Token() string
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     zerolog.Logger
}

// Client talks to one clinic API deployment.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  zerolog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    hc,
		tokens:  cfg.Tokens,
		logger:  cfg.Logger.With().Str("component", "apiclient").Logger(),
	}, nil
}

// SetTokenSource replaces the token source. The session store and the client
// depend on each other, so one of them is wired after construction.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Do sends an authenticated request and returns the raw response body. body,
// when non-nil, is sent as JSON. Non-2xx answers and transport failures are
// returned as *apierror.Error.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	return c.send(ctx, method, path, body, true)
}

func (c *Client) send(ctx context.Context, method, path string, body any, authed bool) ([]byte, error) {
	fail := func(status int, respBody []byte, err error) error {
		return &apierror.Error{Method: method, Path: path, Status: status, Body: respBody, Err: err}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fail(0, nil, fmt.Errorf("encoding request body: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fail(0, nil, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Msg("request failed")
		return nil, fail(0, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	if err != nil {
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(resp.StatusCode, data, nil)
	}
	return data, nil
}
