package http

import "github.com/gin-gonic/gin"

// Register attaches project and scenario routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)

	rg.POST("/:id/scenarios", h.createScenario)
	rg.GET("/:id/scenarios", h.listScenarios)
	rg.PATCH("/:id/scenarios/:scenario_id", h.updateScenario)
	rg.DELETE("/:id/scenarios/:scenario_id", h.deleteScenario)
}
