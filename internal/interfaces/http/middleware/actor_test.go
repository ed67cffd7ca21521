package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/salonsuite/backend/internal/domain/shared"
)

func setupActorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), ActorContext())
	router.GET("/whoami", func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no actor"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actor_id": actor.ID, "role": actor.Role})
	})
	return router
}

func TestActorContext(t *testing.T) {
	router := setupActorRouter()

	t.Run("resolves actor from headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(HeaderActorID, uuid.New().String())
		req.Header.Set(HeaderTenantID, uuid.New().String())
		req.Header.Set(HeaderActorRole, string(shared.RoleCashier))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects missing actor ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(HeaderTenantID, uuid.New().String())
		req.Header.Set(HeaderActorRole, string(shared.RoleCashier))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "actor ID")
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(HeaderActorID, uuid.New().String())
		req.Header.Set(HeaderTenantID, uuid.New().String())
		req.Header.Set(HeaderActorRole, "INTERN")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "role")
	})

	t.Run("echoes the request ID header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Request-ID", "req-42")
		req.Header.Set(HeaderActorID, uuid.New().String())
		req.Header.Set(HeaderTenantID, uuid.New().String())
		req.Header.Set(HeaderActorRole, string(shared.RoleManager))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	})
}
