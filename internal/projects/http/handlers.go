package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/treeline-hq/treeline-backend/internal/auth"
	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
)

// respondErr translates core errors into HTTP outcomes: NotFound → 404,
// CycleViolation → 409, rejected input → 400. Everything else — store
// and transaction failures included — is logged and answered as a bare
// 500 so internals never leak into the body.
func (h *Handler) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
	case errors.Is(err, domain.ErrCycle):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "parent change would create a cycle"})
	case errors.Is(err, domain.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		h.log.Errorw("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden"})
}

// requireAccess runs the access predicate for the project in the URL.
// Returns false after writing the response when access is denied.
func (h *Handler) requireAccess(c *gin.Context, projectID string) bool {
	ok, err := h.access.HasAccess(c.Request.Context(), auth.OrgID(c), projectID, auth.UserID(c), auth.IsSuperAdmin(c))
	if err != nil {
		h.respondErr(c, err)
		return false
	}
	if !ok {
		forbidden(c)
		return false
	}
	return true
}

// requireAdmin is requireAccess plus the ADMIN role.
func (h *Handler) requireAdmin(c *gin.Context, projectID string) bool {
	ok, err := h.access.IsAdmin(c.Request.Context(), auth.OrgID(c), projectID, auth.UserID(c), auth.IsSuperAdmin(c))
	if err != nil {
		h.respondErr(c, err)
		return false
	}
	if !ok {
		forbidden(c)
		return false
	}
	return true
}

func (h *Handler) create(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	// Creating a child requires access to the parent; a root project
	// only requires authentication.
	if req.ParentID != nil && !h.requireAccess(c, *req.ParentID) {
		return
	}

	p, err := h.projects.Create(c.Request.Context(), service.CreateProject{
		OrgID:       auth.OrgID(c),
		Name:        req.Name,
		Slug:        req.Slug,
		ParentID:    req.ParentID,
		CreatorID:   auth.UserID(c),
		Status:      domain.Status(req.Status),
		Severity:    domain.Severity(req.Severity),
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.projects.List(c.Request.Context(), auth.OrgID(c), auth.UserID(c), auth.IsSuperAdmin(c))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}
	p, err := h.projects.Get(c.Request.Context(), auth.OrgID(c), projectID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) update(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}

	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	patch := domain.ProjectPatch{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	if req.Status != nil {
		s := domain.Status(*req.Status)
		patch.Status = &s
	}
	if req.Severity != nil {
		s := domain.Severity(*req.Severity)
		patch.Severity = &s
	}
	if req.SetParent {
		if !h.requireAdmin(c, projectID) {
			return
		}
		patch.SetParent = &domain.ParentChange{Parent: req.ParentID}
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "empty patch"})
		return
	}

	p, err := h.projects.Update(c.Request.Context(), auth.OrgID(c), projectID, patch)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAdmin(c, projectID) {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), auth.OrgID(c), projectID); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) archive(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAdmin(c, projectID) {
		return
	}
	if err := h.projects.Archive(c.Request.Context(), auth.OrgID(c), projectID); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) getSettings(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}
	s, err := h.projects.GetSettings(c.Request.Context(), auth.OrgID(c), projectID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": s})
}

func (h *Handler) updateSettings(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAdmin(c, projectID) {
		return
	}

	var req updateSettingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	patch := domain.SettingsPatch{
		AutoAssignCreator: req.AutoAssignCreator,
		AutoAssignMembers: req.AutoAssignMembers,
		DefaultDueDays:    req.DefaultDueDays,
		NotifyOnStatus:    req.NotifyOnStatus,
		NotifyOnAssign:    req.NotifyOnAssign,
	}
	if req.DefaultPriority != nil {
		p := domain.Severity(*req.DefaultPriority)
		patch.DefaultPriority = &p
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "empty patch"})
		return
	}

	s, err := h.projects.UpdateSettings(c.Request.Context(), auth.OrgID(c), projectID, patch)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": s})
}
