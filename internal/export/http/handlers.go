package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/model-my-watershed/mmw-backend/internal/auth"
	"github.com/model-my-watershed/mmw-backend/internal/export/domain"
	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
	"github.com/model-my-watershed/mmw-backend/internal/export/service"
	"github.com/model-my-watershed/mmw-backend/internal/export/shapefile"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
	pdomain "github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

// hydroshareGet returns the stored link if the remote resource still exists.
func (h *Handler) hydroshareGet(c *gin.Context) {
	userID, project, ok := h.requestProject(c)
	if !ok {
		return
	}

	link, err := h.exports.Get(c.Request.Context(), userID, project.ID)
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, h.linkResponse(link))
}

// hydrosharePost starts an export chain: a first export creates the remote
// resource, later calls re-sync files. Responds 202 with a pollable job id.
func (h *Handler) hydrosharePost(c *gin.Context) {
	userID, project, ok := h.requestProject(c)
	if !ok {
		return
	}

	// A bodiless POST is a plain "export with defaults" request.
	var req exportReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	linked, err := h.exports.Linked(c.Request.Context(), project.ID)
	if err != nil {
		h.renderErr(c, err)
		return
	}

	var job *jobs.Job
	if linked {
		job, err = h.dispatcher.Dispatch(func(ctx context.Context) (any, error) {
			link, err := h.exports.Update(ctx, userID, project, req.fileSpecs())
			if err != nil {
				return nil, err
			}
			return h.linkResponse(link), nil
		})
	} else {
		autosync := true
		if req.Autosync != nil {
			autosync = *req.Autosync
		}
		job, err = h.dispatcher.Dispatch(func(ctx context.Context) (any, error) {
			link, err := h.exports.Create(ctx, userID, project, service.CreateRequest{
				Title:    req.Title,
				Abstract: req.Abstract,
				Keywords: req.Keywords,
				Files:    req.fileSpecs(),
				Autosync: autosync,
			})
			if err != nil {
				return nil, err
			}
			return h.linkResponse(link), nil
		})
	}
	if err != nil {
		h.renderErr(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": job.ID, "status": job.Status})
}

// hydrosharePatch updates the autosync flag; no remote call.
func (h *Handler) hydrosharePatch(c *gin.Context) {
	_, project, ok := h.requestProject(c)
	if !ok {
		return
	}

	var req patchReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Autosync == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "must specify autosync as true or false"})
		return
	}

	link, err := h.exports.SetAutosync(c.Request.Context(), project.ID, *req.Autosync)
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, h.linkResponse(link))
}

// hydroshareDelete removes the remote resource best-effort and the local
// link unconditionally.
func (h *Handler) hydroshareDelete(c *gin.Context) {
	userID, project, ok := h.requestProject(c)
	if !ok {
		return
	}

	if err := h.exports.Delete(c.Request.Context(), userID, project.ID); err != nil {
		h.renderErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// shapefilePost converts a GeoJSON shape to a zipped shapefile download.
func (h *Handler) shapefilePost(c *gin.Context) {
	var req shapefileReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Shape) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = shapefile.AOIBasename
	}

	archive, err := shapefile.WriteZip(req.Shape)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`.zip"`)
	c.Data(http.StatusOK, "application/zip", archive)
}

// jobStatus reports the state of a dispatched export chain.
func (h *Handler) jobStatus(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

// requestProject resolves the ?project= query parameter to a project owned
// by the caller.
func (h *Handler) requestProject(c *gin.Context) (string, *pdomain.Project, bool) {
	userID := auth.UserDBID(c)

	raw := c.Query("project")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "cannot export without project"})
		return "", nil, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
		return "", nil, false
	}

	project, err := h.projects.Get(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, pdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return "", nil, false
	}
	return userID, project, true
}

func (h *Handler) renderErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, hydroshare.ErrNotConnected):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not connected to HydroShare"})
	case errors.Is(err, domain.ErrLinkNotFound), errors.Is(err, domain.ErrRemoteGone):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrLinkExists), errors.Is(err, domain.ErrNoAOI):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
