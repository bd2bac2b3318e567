package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the admin session.
const ContextSessionKey = "currentSession"

// SessionResolver loads and drops sessions by bearer token.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.Session, error)
	Invalidate(ctx context.Context, token string)
}

// RequireSession protects routes by requiring a live console session. The
// token is forwarded to the backend through the request context. When any
// handler error says the backend refused the token, the session is dropped.
func RequireSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		session, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			if appErrors.FromError(err).Code == appErrors.ErrSessionExpired.Code {
				resolver.Invalidate(c.Request.Context(), token)
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Request = c.Request.WithContext(repository.WithToken(c.Request.Context(), token))
		c.Next()

		for _, ginErr := range c.Errors {
			if appErrors.FromError(ginErr.Err).Code == appErrors.ErrSessionExpired.Code {
				resolver.Invalidate(context.WithoutCancel(c.Request.Context()), token)
				return
			}
		}
	}
}

// OptionalSession attaches the session when a valid token is present but
// never blocks.
func OptionalSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		session, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextSessionKey, session)
		c.Request = c.Request.WithContext(repository.WithToken(c.Request.Context(), token))
		c.Next()
	}
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
