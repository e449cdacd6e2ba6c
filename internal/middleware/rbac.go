package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/response"
)

// RequireRoles lets through authenticated callers holding one of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.UserID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorizedRole, "role "+string(actor.Role)+" cannot access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
