package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/model-my-watershed/mmw-backend/internal/auth"
	"github.com/model-my-watershed/mmw-backend/internal/projects"
	"github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

type createReq struct {
	Name               string          `json:"name"`
	AreaOfInterest     json.RawMessage `json:"area_of_interest"`
	AreaOfInterestName string          `json:"area_of_interest_name"`
	ModelPackage       string          `json:"model_package"`
	GISData            string          `json:"gis_data"`
	WKAoI              string          `json:"wkaoi"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	userID := auth.UserDBID(c)
	p, err := h.repo.Create(c.Request.Context(), userID, projects.CreateProject{
		Name:               strings.TrimSpace(req.Name),
		AreaOfInterest:     string(req.AreaOfInterest),
		AreaOfInterestName: req.AreaOfInterestName,
		ModelPackage:       req.ModelPackage,
		GISData:            req.GISData,
		WKAoI:              req.WKAoI,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	userID := auth.UserDBID(c)
	items, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	p, err := h.repo.Get(c.Request.Context(), auth.UserDBID(c), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type updateReq struct {
	Name    string  `json:"name"`
	GISData *string `json:"gis_data"`
}

func (h *Handler) update(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.repo.Update(c.Request.Context(), auth.UserDBID(c), id, projects.UpdateProject{
		Name:    strings.TrimSpace(req.Name),
		GISData: req.GISData,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), auth.UserDBID(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
		return 0, false
	}
	return id, true
}
