package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/model-my-watershed/mmw-backend/internal/export/domain"
	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
	"github.com/model-my-watershed/mmw-backend/internal/export/service"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
	pdomain "github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

// ProjectGetter resolves a project owned by a user; satisfied by
// projects.Repo.
type ProjectGetter interface {
	Get(ctx context.Context, userDBID string, id int64) (*pdomain.Project, error)
}

// Handler bundles the dependencies for export HTTP endpoints.
type Handler struct {
	exports    *service.ExportService
	dispatcher *service.Dispatcher
	jobs       *jobs.Repo
	projects   ProjectGetter
	hs         *hydroshare.Service
}

func New(exports *service.ExportService, dispatcher *service.Dispatcher, jobRepo *jobs.Repo, projectRepo ProjectGetter, hs *hydroshare.Service) *Handler {
	return &Handler{
		exports:    exports,
		dispatcher: dispatcher,
		jobs:       jobRepo,
		projects:   projectRepo,
		hs:         hs,
	}
}

type fileSpecReq struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
}

type exportReq struct {
	Title    string        `json:"title"`
	Abstract string        `json:"abstract"`
	Keywords []string      `json:"keywords"`
	Files    []fileSpecReq `json:"files"`
	Autosync *bool         `json:"autosync"`
}

func (r exportReq) fileSpecs() []domain.FileSpec {
	out := make([]domain.FileSpec, 0, len(r.Files))
	for _, f := range r.Files {
		out = append(out, domain.InlineText(f.Name, f.Contents))
	}
	return out
}

type patchReq struct {
	Autosync *bool `json:"autosync"`
}

type shapefileReq struct {
	Shape    json.RawMessage `json:"shape"`
	Filename string          `json:"filename"`
}

type linkResponse struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project"`
	Resource   string    `json:"resource"`
	Title      string    `json:"title"`
	Autosync   bool      `json:"autosync"`
	URL        string    `json:"url"`
	ExportedAt time.Time `json:"exported_at"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (h *Handler) linkResponse(link *domain.ExportLink) linkResponse {
	return linkResponse{
		ID:         link.ID,
		ProjectID:  link.ProjectID,
		Resource:   link.Resource,
		Title:      link.Title,
		Autosync:   link.Autosync,
		URL:        h.hs.ResourceURL(link.Resource),
		ExportedAt: link.ExportedAt,
		CreatedAt:  link.CreatedAt,
		ModifiedAt: link.ModifiedAt,
	}
}
