package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/model-my-watershed/mmw-backend/internal/auth"
	"github.com/model-my-watershed/mmw-backend/internal/projects"
	"github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

type createScenarioReq struct {
	Name                string `json:"name"`
	IsCurrentConditions bool   `json:"is_current_conditions"`
	Inputs              string `json:"inputs"`
	Modifications       string `json:"modifications"`
}

// ownedProject loads the project and enforces ownership before any scenario
// operation touches it.
func (h *Handler) ownedProject(c *gin.Context) (int64, bool) {
	id, ok := projectID(c)
	if !ok {
		return 0, false
	}
	if _, err := h.repo.Get(c.Request.Context(), auth.UserDBID(c), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return 0, false
	}
	return id, true
}

func (h *Handler) createScenario(c *gin.Context) {
	pid, ok := h.ownedProject(c)
	if !ok {
		return
	}

	var req createScenarioReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	s, err := h.scenarios.Create(c.Request.Context(), pid, projects.CreateScenario{
		Name:                strings.TrimSpace(req.Name),
		IsCurrentConditions: req.IsCurrentConditions,
		Inputs:              req.Inputs,
		Modifications:       req.Modifications,
	})
	if err != nil {
		if errors.Is(err, projects.ErrScenarioNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "scenario": s})
}

func (h *Handler) listScenarios(c *gin.Context) {
	pid, ok := h.ownedProject(c)
	if !ok {
		return
	}

	items, err := h.scenarios.List(c.Request.Context(), pid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "scenarios": items})
}

type updateScenarioReq struct {
	Inputs        *string `json:"inputs"`
	Modifications *string `json:"modifications"`
	Results       *string `json:"results"`
}

func (h *Handler) updateScenario(c *gin.Context) {
	pid, ok := h.ownedProject(c)
	if !ok {
		return
	}
	sid, err := strconv.ParseInt(c.Param("scenario_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid scenario id"})
		return
	}

	var req updateScenarioReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	s, err := h.scenarios.Update(c.Request.Context(), pid, sid, projects.UpdateScenario{
		Inputs:        req.Inputs,
		Modifications: req.Modifications,
		Results:       req.Results,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "scenario not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "scenario": s})
}

func (h *Handler) deleteScenario(c *gin.Context) {
	pid, ok := h.ownedProject(c)
	if !ok {
		return
	}
	sid, err := strconv.ParseInt(c.Param("scenario_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid scenario id"})
		return
	}

	deleted, err := h.scenarios.Delete(c.Request.Context(), pid, sid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "scenario not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
