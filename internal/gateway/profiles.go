package gateway

import (
	"context"
	"net/http"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// ListProfiles returns the user's automation profiles.
func (c *Client) ListProfiles(ctx context.Context, token string) ([]domain.AutomationProfile, error) {
	out := []domain.AutomationProfile{}
	err := c.do(ctx, call{
		endpoint: "profiles.list", method: http.MethodGet, path: "/profiles/", token: token, out: &out,
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.AutomationProfile{}
	}
	return out, nil
}

// CreateProfile stores p and returns the backend's copy.
func (c *Client) CreateProfile(ctx context.Context, token string, p domain.AutomationProfile) (domain.AutomationProfile, error) {
	var out domain.AutomationProfile
	err := c.do(ctx, call{
		endpoint: "profiles.create", method: http.MethodPost, path: "/profiles/", token: token, body: p, out: &out,
	})
	return out, err
}

// UpdateProfile patches profile id with fields.
func (c *Client) UpdateProfile(ctx context.Context, token, id string, fields map[string]any) (domain.AutomationProfile, error) {
	var out domain.AutomationProfile
	err := c.do(ctx, call{
		endpoint: "profiles.update", method: http.MethodPatch, path: "/profiles/" + pathID(id) + "/",
		token: token, body: fields, out: &out,
	})
	return out, err
}

// DeleteProfile removes profile id.
func (c *Client) DeleteProfile(ctx context.Context, token, id string) error {
	return c.do(ctx, call{
		endpoint: "profiles.delete", method: http.MethodDelete, path: "/profiles/" + pathID(id) + "/", token: token,
	})
}

type defaultsEnvelope struct {
	Message       string         `json:"message,omitempty"`
	DefaultValues map[string]any `json:"default_values"`
}

// PatchProfileDefaults replaces a profile's default values.
func (c *Client) PatchProfileDefaults(ctx context.Context, token, id string, values map[string]any) (map[string]any, error) {
	var out defaultsEnvelope
	err := c.do(ctx, call{
		endpoint: "profiles.defaults", method: http.MethodPatch, path: "/profiles/" + pathID(id) + "/defaults",
		token: token, body: defaultsEnvelope{DefaultValues: values}, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return out.DefaultValues, nil
}
