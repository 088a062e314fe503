package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// Login exchanges credentials for a bearer token. The backend expects an
// OAuth2 password form with the email as username.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out domain.AccessToken
	err := c.do(ctx, call{
		endpoint: "auth.login",
		method:   http.MethodPost,
		path:     "/auth/jwt/login",
		public:   true,
		form:     url.Values{"username": {email}, "password": {password}},
		out:      &out,
	})
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("auth.login: response carried no access_token")
	}
	return out.AccessToken, nil
}

// Register creates an account. The backend's user object is returned as-is.
func (c *Client) Register(ctx context.Context, email, password string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, call{
		endpoint: "auth.register",
		method:   http.MethodPost,
		path:     "/auth/register",
		public:   true,
		body:     map[string]string{"email": email, "password": password},
		out:      &out,
	})
	return out, err
}
