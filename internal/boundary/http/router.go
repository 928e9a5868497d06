package http

import "github.com/gin-gonic/gin"

// Register attaches boundary routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/layers", h.layers)
	rg.GET("/shape/:code/:id", h.shape)
	rg.GET("/subbasins/:code/:id", h.subbasins)
	rg.GET("/search", h.search)
}
