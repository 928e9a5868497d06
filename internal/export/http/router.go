package http

import "github.com/gin-gonic/gin"

// Register attaches export routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/hydroshare", h.hydroshareGet)
	rg.POST("/hydroshare", h.hydrosharePost)
	rg.PATCH("/hydroshare", h.hydrosharePatch)
	rg.DELETE("/hydroshare", h.hydroshareDelete)

	rg.POST("/shapefile", h.shapefilePost)
}

// RegisterJobs attaches the job status route, typically at the API root.
func (h *Handler) RegisterJobs(rg *gin.RouterGroup) {
	rg.GET("/jobs/:id", h.jobStatus)
}
