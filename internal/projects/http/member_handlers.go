package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/treeline-hq/treeline-backend/internal/auth"
	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

func (h *Handler) descendants(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}
	ids, err := h.hierarchy.Descendants(c.Request.Context(), auth.OrgID(c), projectID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "descendants": ids})
}

func (h *Handler) ancestors(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}
	ids, err := h.hierarchy.Ancestors(c.Request.Context(), auth.OrgID(c), projectID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "ancestors": ids})
}

func (h *Handler) listMembers(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}
	members, err := h.members.ListDirect(c.Request.Context(), auth.OrgID(c), projectID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "members": members})
}

// effectiveMembers resolves the ancestor-folded member set, deepest role
// winning per user.
func (h *Handler) effectiveMembers(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}
	members, err := h.hierarchy.EffectiveMembers(c.Request.Context(), auth.OrgID(c), projectID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "members": members})
}

// grant adds a user to the project and its whole subtree. Admin only:
// granting fans out to every descendant.
func (h *Handler) grant(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAdmin(c, projectID) {
		return
	}

	var req grantReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleMember
	}

	err := h.members.AddUserToSubtree(c.Request.Context(), auth.OrgID(c), projectID, req.UserID, role)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

// revoke removes a user from the project and its whole subtree.
func (h *Handler) revoke(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAdmin(c, projectID) {
		return
	}

	userID := c.Param("user_id")
	err := h.members.RemoveUserFromSubtree(c.Request.Context(), auth.OrgID(c), projectID, userID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
