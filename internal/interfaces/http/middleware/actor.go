package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/interfaces/http/dto"
)

// Header names carrying the authenticated actor context. The gateway in
// front of this service validates credentials and injects these.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderTenantID  = "X-Tenant-ID"
	HeaderActorRole = "X-Actor-Role"
)

// actorKey is the gin context key for the resolved actor
const actorKey = "actor"

// ActorContextConfig configures the actor middleware
type ActorContextConfig struct {
	// SkipPaths lists exact request paths served without an actor
	SkipPaths []string
}

// ActorContext resolves the tenant-scoped actor from request headers and
// rejects requests without a complete identity
func ActorContext() gin.HandlerFunc {
	return ActorContextWithConfig(ActorContextConfig{})
}

// ActorContextWithConfig is ActorContext with skip paths for public
// endpoints such as health checks
func ActorContextWithConfig(cfg ActorContextConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		actorID, err := uuid.Parse(c.GetHeader(HeaderActorID))
		if err != nil {
			abortUnauthorized(c, "Missing or invalid actor ID")
			return
		}
		tenantID, err := uuid.Parse(c.GetHeader(HeaderTenantID))
		if err != nil {
			abortUnauthorized(c, "Missing or invalid tenant ID")
			return
		}
		role := shared.Role(c.GetHeader(HeaderActorRole))
		if !role.IsValid() {
			abortUnauthorized(c, "Missing or invalid actor role")
			return
		}

		c.Set(actorKey, shared.NewActor(actorID, tenantID, role))
		c.Next()
	}
}

// GetActor returns the actor resolved by ActorContext
func GetActor(c *gin.Context) (shared.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return shared.Actor{}, false
	}
	actor, ok := value.(shared.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	requestID := GetRequestID(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, requestID))
}
