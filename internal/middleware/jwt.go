package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/logger"
	"github.com/noah-isme/course-batch-api/pkg/response"
)

// ContextActorKey is the gin context key storing the authenticated models.Actor.
const ContextActorKey = "actor"

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT requires a valid bearer token and exposes the caller as an Actor.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		actor := claims.Actor()
		c.Set(ContextActorKey, actor)
		c.Set(logger.UserIDKey, actor.UserID)
		c.Request = c.Request.WithContext(logger.WithUser(c.Request.Context(), actor.UserID))
		c.Next()
	}
}

// ActorFrom returns the authenticated caller, or the zero Actor for anonymous requests.
func ActorFrom(c *gin.Context) models.Actor {
	if value, ok := c.Get(ContextActorKey); ok {
		if actor, ok := value.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return token, nil
}
