// Package gateway wraps the AutoFillPro backend REST API. Each method is a
// single at-most-once call: no retries, caching or request coalescing.
package gateway

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

	infraerrors "github.com/Activ8Auto/ProAutoFill/infrastructure/errors"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
)

// ErrMissingToken is returned before any I/O when an authenticated call has no token.
var ErrMissingToken = errors.New("missing bearer token")

// Outcome labels passed to an Observer.
const (
	OutcomeSuccess   = "success"
	OutcomeHTTPError = "http_error"
	OutcomeError     = "error"
)

// Observer receives one callback per backend call.
type Observer interface {
	ObserveGatewayCall(endpoint, outcome string, elapsed time.Duration)
}

// Client calls the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports call outcomes and latency.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, log logger.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	endpoint string
	method   string
	path     string
	token    string
	public   bool
	body     any
	form     url.Values
	out      any
}

func (c *Client) do(ctx context.Context, cl call) (err error) {
	if !cl.public && cl.token == "" {
		return ErrMissingToken
	}

	start := time.Now()
	defer func() { c.observe(cl.endpoint, err, time.Since(start)) }()

	var (
		reader      io.Reader
		contentType string
	)
	switch {
	case cl.form != nil:
		reader = strings.NewReader(cl.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case cl.body != nil:
		payload, marshalErr := json.Marshal(cl.body)
		if marshalErr != nil {
			return fmt.Errorf("%s: marshal request: %w", cl.endpoint, marshalErr)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, reqErr := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if reqErr != nil {
		return fmt.Errorf("%s: create request: %w", cl.endpoint, reqErr)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return fmt.Errorf("%s: %w", cl.endpoint, doErr)
	}
	defer func() { _ = resp.Body.Close() }()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		c.log.Debug("Backend returned error",
			logger.String("endpoint", cl.endpoint),
			logger.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%s: %w", cl.endpoint, httpErr)
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(cl.out); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return fmt.Errorf("%s: decode response: %w", cl.endpoint, decodeErr)
	}
	return nil
}

func (c *Client) observe(endpoint string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case isHTTPError(err):
		outcome = OutcomeHTTPError
	default:
		outcome = OutcomeError
	}
	c.observer.ObserveGatewayCall(endpoint, outcome, elapsed)
}

func pathID(id string) string {
	return url.PathEscape(id)
}

func isHTTPError(err error) bool {
	_, ok := infraerrors.AsHTTPError(err)
	return ok
}
