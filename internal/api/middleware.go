package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infrajwt "github.com/Activ8Auto/ProAutoFill/infrastructure/jwt"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

const (
	sessionKey = "session"

	msgUnauthenticated = "User is not authenticated."
)

// SessionAuth admits requests whose bearer token (or access_token query
// parameter) belongs to a live session.
func SessionAuth(sessions Sessions, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := infrajwt.TokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthenticated})
			return
		}

		sess, err := sessions.Lookup(c.Request.Context(), token)
		if err != nil {
			log.Debug("Session lookup failed", logger.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthenticated})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// currentSession returns the session SessionAuth stored.
func currentSession(c *gin.Context) session.Session {
	v, _ := c.Get(sessionKey)
	sess, _ := v.(session.Session)
	return sess
}
