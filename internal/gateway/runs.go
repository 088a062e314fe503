package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// ListRuns returns the user's run history.
func (c *Client) ListRuns(ctx context.Context, token string) ([]domain.Run, error) {
	var out struct {
		Runs []domain.Run `json:"runs"`
	}
	if err := c.do(ctx, call{
		endpoint: "runs.list", method: http.MethodGet, path: "/runs/", token: token, out: &out,
	}); err != nil {
		return nil, err
	}
	if out.Runs == nil {
		return []domain.Run{}, nil
	}
	return out.Runs, nil
}

// RemainingRuns returns the free-tier quota.
func (c *Client) RemainingRuns(ctx context.Context, token string) (domain.RemainingRuns, error) {
	var out domain.RemainingRuns
	err := c.do(ctx, call{
		endpoint: "runs.remaining", method: http.MethodGet, path: "/runs/remaining", token: token, out: &out,
	})
	return out, err
}

// ListErrorLogs returns failed runs, unfiltered.
func (c *Client) ListErrorLogs(ctx context.Context, token string) ([]domain.ErrorLog, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{
		endpoint: "runs.errors.list", method: http.MethodGet, path: "/runs/errors", token: token, out: &raw,
	}); err != nil {
		return nil, err
	}
	return decodeList[domain.ErrorLog](raw, "errors")
}

// ClearErrorLogs deletes the user's error logs.
func (c *Client) ClearErrorLogs(ctx context.Context, token string) error {
	return c.do(ctx, call{
		endpoint: "runs.errors.clear", method: http.MethodDelete, path: "/runs/errors", token: token,
	})
}

// ListJobs returns the automation jobs. The backend may send either
// {"jobs": [...]} or a bare array.
func (c *Client) ListJobs(ctx context.Context, token string) ([]domain.Job, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{
		endpoint: "automation.jobs", method: http.MethodGet, path: "/automation/jobs", token: token, out: &raw,
	}); err != nil {
		return nil, err
	}
	return decodeList[domain.Job](raw, "jobs")
}

// TriggerRun starts an automation job for profileID.
func (c *Client) TriggerRun(ctx context.Context, token, profileID string) (domain.RunTriggerResult, error) {
	var out domain.RunTriggerResult
	err := c.do(ctx, call{
		endpoint: "automation.run", method: http.MethodPost, path: "/automation/run/", token: token,
		body: domain.RunTrigger{ProfileID: profileID}, out: &out,
	})
	return out, err
}

// CreateCheckoutSession asks the backend for a hosted checkout URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, token string) (domain.CheckoutSession, error) {
	var out domain.CheckoutSession
	err := c.do(ctx, call{
		endpoint: "billing.checkout", method: http.MethodPost, path: "/stripe/create-checkout-session", token: token,
		body: map[string]any{}, out: &out,
	})
	return out, err
}

// decodeList accepts a bare JSON array or an object holding the array under key.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	out := []T{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return out, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	inner, ok := wrapped[key]
	if !ok || bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(inner, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}
