package middleware

import (
	"net/http"
	"strings"

	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"
	"team-tasks/backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const actorContextKey = "actor"

// AuthRequired parses the bearer token and loads the actor with their
// current role from storage, so a role change is reflected on the very
// next request rather than at token expiry.
func AuthRequired(store repositories.Store, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}

		claims, err := utils.ParseJWT(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		userIDStr, ok := claims["user_id"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}
		userID, err := uuid.FromString(userIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		actor, err := store.Users().FindByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
			return
		}

		c.Set(actorContextKey, actor)
		c.Set("user_id", actor.ID.String())
		c.Next()
	}
}

// ActorFrom returns the authenticated actor loaded by AuthRequired.
func ActorFrom(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return nil, false
	}
	actor, ok := value.(*models.User)
	return actor, ok
}

// AdminOnly gates a route group to admin actors. Must run after
// AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}
