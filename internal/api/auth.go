package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/Activ8Auto/ProAutoFill/infrastructure/errors"
	infrajwt "github.com/Activ8Auto/ProAutoFill/infrastructure/jwt"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func bindCredentials(c *gin.Context) (domain.Credentials, bool) {
	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, err)
		return creds, false
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return creds, false
	}
	return creds, true
}

// Login exchanges credentials for a backend token, opens a session and
// starts polling the user's jobs.
func (h *Handler) Login(c *gin.Context) {
	creds, ok := bindCredentials(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	token, err := h.deps.Auth.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		if status, ok := infraerrors.StatusCode(err); ok && status < http.StatusInternalServerError {
			h.log.Info("Login rejected", logger.Int("upstream_status", status))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		h.respondError(c, err, "log in")
		return
	}

	sess, err := h.deps.Sessions.Open(ctx, token)
	if err != nil {
		h.log.Error("Backend issued an unusable token", logger.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to log in", "details": err.Error()})
		return
	}

	if h.deps.Pollers != nil {
		if err := h.deps.Pollers.Ensure(sess.UserID, sess.Token); err != nil {
			h.log.Warn("Job poller not started", logger.String("user_id", sess.UserID), logger.Error(err))
		}
	}

	h.log.Info("User logged in", logger.String("user_id", sess.UserID))
	c.JSON(http.StatusOK, loginResponse{Token: sess.Token, UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
}

// RegisterAccount creates a backend account.
func (h *Handler) RegisterAccount(c *gin.Context) {
	creds, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := h.deps.Auth.Register(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		if status, ok := infraerrors.StatusCode(err); ok && status == http.StatusBadRequest {
			httpErr, _ := infraerrors.AsHTTPError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": httpErr.Message})
			return
		}
		h.respondError(c, err, "register")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Logout closes the caller's session.
func (h *Handler) Logout(c *gin.Context) {
	sess := currentSession(c)
	token, _ := infrajwt.TokenFromRequest(c)

	if err := h.deps.Sessions.Close(c.Request.Context(), token); err != nil {
		h.log.Warn("Session close failed", logger.String("user_id", sess.UserID), logger.Error(err))
	}
	if h.deps.Pollers != nil {
		h.deps.Pollers.Stop(sess.UserID)
	}
	if h.deps.OnLogout != nil {
		h.deps.OnLogout(sess.UserID)
	}

	h.log.Info("User logged out", logger.String("user_id", sess.UserID))
	c.Status(http.StatusNoContent)
}

// PublicConfig returns settings the login page needs.
func (h *Handler) PublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Public)
}
