package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the token endpoints this service owns. Identity
// provisioning (signup, credential storage) lives in the identity layer,
// not here.
type Handler struct {
	tokens  *TokenService
	revoked *RevocationStore
}

func NewHandler(tokens *TokenService, revoked *RevocationStore) *Handler {
	return &Handler{tokens: tokens, revoked: revoked}
}

// Register attaches auth routes; the group must run Middleware first.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/logout", h.logout)
	rg.GET("/me", h.me)
}

// logout revokes the presented token until its natural expiry.
func (h *Handler) logout(c *gin.Context) {
	claims, err := h.tokens.Parse(extractToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
		return
	}
	if err := h.revoked.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// me echoes the identity the middleware resolved.
func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"user_id":     UserID(c),
		"org_id":      OrgID(c),
		"super_admin": IsSuperAdmin(c),
	})
}
