package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/treeline-hq/treeline-backend/internal/auth"
	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
)

func (h *Handler) listTasks(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}
	items, err := h.tasks.List(c.Request.Context(), auth.OrgID(c), projectID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": items})
}

func (h *Handler) createTask(c *gin.Context) {
	projectID := c.Param("id")
	if !h.requireAccess(c, projectID) {
		return
	}

	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	t, err := h.tasks.Create(c.Request.Context(), service.CreateTask{
		OrgID:     auth.OrgID(c),
		ProjectID: projectID,
		Title:     req.Title,
		Priority:  domain.Severity(req.Priority),
		CreatorID: auth.UserID(c),
		Assignees: req.Assignees,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "task": t})
}

// getTask applies the task-level rule: project access plus creator,
// assignee, or project admin.
func (h *Handler) getTask(c *gin.Context) {
	projectID := c.Param("id")
	taskID := c.Param("task_id")

	ok, err := h.access.CanActOnTask(c.Request.Context(), auth.OrgID(c), projectID, taskID, auth.UserID(c), auth.IsSuperAdmin(c))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if !ok {
		forbidden(c)
		return
	}

	t, err := h.tasks.Get(c.Request.Context(), auth.OrgID(c), projectID, taskID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": t})
}
