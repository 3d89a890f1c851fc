package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the given router group. The group
// is expected to already carry the auth middleware that resolves org,
// user, and super-admin flag.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/archive", h.archive)

	rg.GET("/:id/settings", h.getSettings)
	rg.PATCH("/:id/settings", h.updateSettings)

	rg.GET("/:id/descendants", h.descendants)
	rg.GET("/:id/ancestors", h.ancestors)

	rg.GET("/:id/members", h.listMembers)
	rg.GET("/:id/members/effective", h.effectiveMembers)
	rg.POST("/:id/members", h.grant)
	rg.DELETE("/:id/members/:user_id", h.revoke)

	rg.GET("/:id/tasks", h.listTasks)
	rg.POST("/:id/tasks", h.createTask)
	rg.GET("/:id/tasks/:task_id", h.getTask)
}
