package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"driverhire/internal/models"
	"driverhire/internal/services"
	"driverhire/internal/utils"
)

const (
	ContextSession = "session"
	ContextUserID  = "user_id"
)

// AuthRequired validates the bearer token against the session service and
// sets the session on the context.
func AuthRequired(sessions services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		session, err := sessions.Validate(c.Request.Context(), tokenString)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", utils.ErrInvalidToken)
			c.Abort()
			return
		}

		setSession(c, session)
		c.Next()
	}
}

// OptionalAuth attaches a session when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(sessions services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if session, err := sessions.Validate(c.Request.Context(), tokenString); err == nil {
				setSession(c, session)
			}
		}
		c.Next()
	}
}

// SessionFrom returns the session set by AuthRequired or OptionalAuth.
func SessionFrom(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSession)
	if !exists {
		return nil
	}
	session, _ := value.(*models.Session)
	return session
}

func setSession(c *gin.Context, session *models.Session) {
	c.Set(ContextSession, session)
	c.Set(ContextUserID, session.UserID)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}
