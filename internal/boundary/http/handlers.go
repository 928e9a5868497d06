package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/model-my-watershed/mmw-backend/internal/boundary/domain"
	"github.com/model-my-watershed/mmw-backend/internal/boundary/service"
)

type Handler struct {
	svc *service.BoundaryService
}

func New(svc *service.BoundaryService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) layers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "layers": h.svc.Layers()})
}

func (h *Handler) shape(c *gin.Context) {
	code := c.Param("code")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid shape id"})
		return
	}

	shape, err := h.svc.ShapeOf(c.Request.Context(), code, id)
	if err != nil {
		status, msg := mapErr(err)
		c.JSON(status, gin.H{"ok": false, "error": msg})
		return
	}

	c.Data(http.StatusOK, "application/json", shape)
}

func (h *Handler) subbasins(c *gin.Context) {
	code := c.Param("code")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid shape id"})
		return
	}

	subunits, err := h.svc.SplitIntoSubunits(c.Request.Context(), code, id)
	if err != nil {
		status, msg := mapErr(err)
		c.JSON(status, gin.H{"ok": false, "error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "subbasins": subunits})
}

func (h *Handler) search(c *gin.Context) {
	suggestions, err := h.svc.SearchSuggestions(c.Request.Context(), c.Query("text"))
	if err != nil {
		status, msg := mapErr(err)
		c.JSON(status, gin.H{"ok": false, "error": msg})
		return
	}

	// Shape matches the ArcGIS suggest endpoint the frontend also talks to.
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func mapErr(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownLayer),
		errors.Is(err, domain.ErrUnsupportedLayer),
		errors.Is(err, domain.ErrNoSearchableLayers):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrShapeNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
