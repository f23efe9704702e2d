package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/utils"
)

// AuthMiddleware validates the bearer token and stores the caller's identity
// in the request context for the engine to stamp on documents.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Success: false, Message: "authorization header is required"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		parsed, err := utils.JwtValidate(token)
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Success: false, Message: "invalid or expired token"})
			return
		}
		claims, ok := parsed.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Success: false, Message: "invalid token claims"})
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)
		ctx = utils.SetUserRoleInContext(ctx, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminOnly gates mutating catalog and pricing endpoints.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := utils.GetUserRoleFromContext(c.Request.Context())
		if !ok || role != string(models.UserRoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, envelope{Success: false, Message: "admin role required"})
			return
		}
		c.Next()
	}
}

// CorrelationIdMiddleware tags each request so log lines and movement rows
// from one call can be tied together.
func CorrelationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-Id", correlationId)
		c.Next()
	}
}
