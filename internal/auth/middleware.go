package auth

import (
	"errors"
	"log"
	"net/http"

	"bookwell/internal/utils"

	"github.com/gin-gonic/gin"
)

// TenantKey is the gin context key holding the authenticated tenant id
const TenantKey = "tenant_id"

// AuthMiddleware requires a valid tenant bearer token and stores its tenant in the context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, secret)
		if !ok {
			return
		}
		if claims.TenantID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant token required"})
			return
		}

		c.Set(TenantKey, claims.TenantID)
		c.Next()
	}
}

// OpsMiddleware requires a valid operator bearer token. Tenant tokens are refused.
func OpsMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, secret)
		if !ok {
			return
		}
		if !claims.Ops {
			log.Printf("auth: tenant %s attempted operator endpoint %s", claims.TenantID, c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "operator token required"})
			return
		}
		c.Next()
	}
}

// authenticate aborts the request with 401 unless it carries a valid token
func authenticate(c *gin.Context, secret string) (*TokenClaims, bool) {
	raw := utils.BearerToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}

	claims, err := ValidateToken(raw, secret)
	if err != nil {
		log.Printf("auth: rejected token from %s: %v", utils.GetRealClientIP(c), err)
		if errors.Is(err, ErrExpiredToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}
	return claims, true
}

// TenantFromContext returns the tenant set by AuthMiddleware
func TenantFromContext(c *gin.Context) string {
	return c.GetString(TenantKey)
}
