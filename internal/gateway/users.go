package gateway

import (
	"context"
	"net/http"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// GetUserDefaults returns the user's default selections.
func (c *Client) GetUserDefaults(ctx context.Context, token, userID string) (domain.UserDefaults, error) {
	var out defaultsEnvelope
	if err := c.do(ctx, call{
		endpoint: "users.defaults.get", method: http.MethodGet, path: "/users/" + pathID(userID) + "/defaults/",
		token: token, out: &out,
	}); err != nil {
		return nil, err
	}
	if out.DefaultValues == nil {
		return domain.UserDefaults{}, nil
	}
	return out.DefaultValues, nil
}

// UpdateUserDefaults replaces the user's default selections.
func (c *Client) UpdateUserDefaults(ctx context.Context, token, userID string, values domain.UserDefaults) (domain.UserDefaults, error) {
	var out defaultsEnvelope
	if err := c.do(ctx, call{
		endpoint: "users.defaults.update", method: http.MethodPatch, path: "/users/" + pathID(userID) + "/defaults/",
		token: token, body: defaultsEnvelope{DefaultValues: values}, out: &out,
	}); err != nil {
		return nil, err
	}
	if out.DefaultValues == nil {
		return values, nil
	}
	return out.DefaultValues, nil
}

// GetProfileInfo returns the user's account form data.
func (c *Client) GetProfileInfo(ctx context.Context, token, userID string) (domain.ProfileInfo, error) {
	out := domain.ProfileInfo{}
	err := c.do(ctx, call{
		endpoint: "users.profile_info.get", method: http.MethodGet, path: "/users/" + pathID(userID) + "/profile-info/",
		token: token, out: &out,
	})
	return out, err
}

// UpdateProfileInfo patches the user's account form data.
func (c *Client) UpdateProfileInfo(ctx context.Context, token, userID string, info domain.ProfileInfo) (domain.ProfileInfo, error) {
	out := domain.ProfileInfo{}
	err := c.do(ctx, call{
		endpoint: "users.profile_info.update", method: http.MethodPatch, path: "/users/" + pathID(userID) + "/profile-info/",
		token: token, body: info, out: &out,
	})
	return out, err
}
