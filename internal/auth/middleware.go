package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID     = "user_id"
	CtxOrgID      = "org_id"
	CtxSuperAdmin = "super_admin"
)

// Middleware validates the bearer token, rejects revoked tokens, and
// stores the resolved identity in the gin context.
func Middleware(tokens *TokenService, revoked *RevocationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			c.Abort()
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "token check failed"})
				c.Abort()
				return
			}
			if isRevoked {
				c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "token revoked"})
				c.Abort()
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxOrgID, claims.OrgID)
		c.Set(CtxSuperAdmin, claims.SuperAdmin)
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}

// UserID returns the acting user id set by Middleware.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// OrgID returns the tenant id set by Middleware.
func OrgID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxOrgID))
}

// IsSuperAdmin reports the tenant-independent override flag.
func IsSuperAdmin(c *gin.Context) bool {
	return c.GetBool(CtxSuperAdmin)
}
