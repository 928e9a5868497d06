package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/model-my-watershed/mmw-backend/internal/export/chain"
	"github.com/model-my-watershed/mmw-backend/internal/export/domain"
	"github.com/model-my-watershed/mmw-backend/internal/export/shapefile"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
	pdomain "github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

// ResourceClient is the remote capability the orchestrator consumes.
// Satisfied by hydroshare.Client.
type ResourceClient interface {
	CreateResource(ctx context.Context, title, abstract string, keywords []string, extraMetadata string) (string, error)
	AddFile(ctx context.Context, resourceID, name string, contents io.Reader) error
	DeleteFile(ctx context.Context, resourceID, name string) error
	ListFiles(ctx context.Context, resourceID string) ([]hydroshare.File, error)
	Exists(ctx context.Context, resourceID string) (bool, error)
	SetPublic(ctx context.Context, resourceID string, public bool) error
	SetShareable(ctx context.Context, resourceID string, shareable bool) error
	SetFileTypeMetadata(ctx context.Context, resourceID, filePath, fileType string) error
	DeleteResource(ctx context.Context, resourceID string) error
}

// ClientProvider hands out per-user clients, refreshing credentials first.
type ClientProvider interface {
	ClientFor(ctx context.Context, userID string) (ResourceClient, error)
}

// LinkStore persists ExportLinks. Satisfied by repository.LinkRepo.
type LinkStore interface {
	Create(ctx context.Context, projectID int64, resource, title string, autosync bool) (*domain.ExportLink, error)
	GetByProject(ctx context.Context, projectID int64) (*domain.ExportLink, error)
	SetAutosync(ctx context.Context, projectID int64, enabled bool) (*domain.ExportLink, error)
	TouchExported(ctx context.Context, projectID int64) (*domain.ExportLink, error)
	Delete(ctx context.Context, projectID int64) error
}

// ProjectStore is the slice of project persistence the export flow needs.
type ProjectStore interface {
	MakePublic(ctx context.Context, id int64) error
}

// ExportService drives the multi-step publication of a project to
// HydroShare as a single operation from the caller's point of view.
type ExportService struct {
	clients  ClientProvider
	links    LinkStore
	projects ProjectStore
}

func NewExportService(clients ClientProvider, links LinkStore, projects ProjectStore) *ExportService {
	return &ExportService{clients: clients, links: links, projects: projects}
}

// CreateRequest carries the caller-controlled parts of a first export.
type CreateRequest struct {
	Title    string
	Abstract string
	Keywords []string
	Files    []domain.FileSpec
	Autosync bool
}

// Create publishes a project for the first time. The chain runs strictly in
// order; a failed step aborts the rest and already-uploaded remote files are
// left in place.
func (s *ExportService) Create(ctx context.Context, userID string, project *pdomain.Project, req CreateRequest) (*domain.ExportLink, error) {
	if len(project.AreaOfInterest) == 0 {
		return nil, domain.ErrNoAOI
	}
	if _, err := s.links.GetByProject(ctx, project.ID); err == nil {
		return nil, domain.ErrLinkExists
	} else if !errors.Is(err, domain.ErrLinkNotFound) {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = project.Name
	}

	// The AOI always ships alongside whatever the caller sent.
	files := append([]domain.FileSpec{}, req.Files...)
	files = append(files, domain.InlineText(
		shapefile.AOIBasename+".geojson", string(project.AreaOfInterest)))

	steps := []chain.Step{
		{Name: "create_resource", Run: func(ctx context.Context, _ string) (string, error) {
			client, err := s.clients.ClientFor(ctx, userID)
			if err != nil {
				return "", err
			}
			keywords := mergeKeywords(req.Keywords)
			return client.CreateResource(ctx, title, req.Abstract, keywords, domain.AppKeyFlag)
		}},
		{Name: "add_files", Run: func(ctx context.Context, resource string) (string, error) {
			client, err := s.clients.ClientFor(ctx, userID)
			if err != nil {
				return "", err
			}
			return resource, s.addFiles(ctx, client, resource, files, false)
		}},
		{Name: "add_shapefile", Run: func(ctx context.Context, resource string) (string, error) {
			client, err := s.clients.ClientFor(ctx, userID)
			if err != nil {
				return "", err
			}
			return resource, s.addShapefile(ctx, client, resource, project.AreaOfInterest)
		}},
		{Name: "add_metadata", Run: func(ctx context.Context, resource string) (string, error) {
			client, err := s.clients.ClientFor(ctx, userID)
			if err != nil {
				return "", err
			}
			if err := client.SetPublic(ctx, resource, true); err != nil {
				return "", err
			}
			if err := client.SetShareable(ctx, resource, true); err != nil {
				return "", err
			}
			// Geographic coverage is extracted from the uploaded shapefile.
			return resource, client.SetFileTypeMetadata(
				ctx, resource, shapefile.AOIBasename+".shp", "GeoFeature")
		}},
		{Name: "link_project", Run: func(ctx context.Context, resource string) (string, error) {
			if _, err := s.links.Create(ctx, project.ID, resource, title, req.Autosync); err != nil {
				return "", err
			}
			return resource, s.projects.MakePublic(ctx, project.ID)
		}},
	}

	if _, err := chain.Run(ctx, steps, ""); err != nil {
		return nil, err
	}
	return s.links.GetByProject(ctx, project.ID)
}

// Update re-syncs files to an existing resource. Analysis artifacts already
// present remotely are skipped by name; everything else uploads with
// overwrite semantics. Metadata and the shapefile are not re-run.
func (s *ExportService) Update(ctx context.Context, userID string, project *pdomain.Project, files []domain.FileSpec) (*domain.ExportLink, error) {
	link, err := s.links.GetByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := client.ListFiles(ctx, link.Resource)
	if err != nil {
		if errors.Is(err, hydroshare.ErrRemoteNotFound) {
			return nil, domain.ErrRemoteGone
		}
		return nil, err
	}

	analyzed := analyzeFileNames(existing)
	pending := make([]domain.FileSpec, 0, len(files))
	for _, f := range files {
		if _, skip := analyzed[f.Name]; skip {
			continue
		}
		pending = append(pending, f)
	}

	steps := []chain.Step{
		{Name: "add_files", Run: func(ctx context.Context, resource string) (string, error) {
			client, err := s.clients.ClientFor(ctx, userID)
			if err != nil {
				return "", err
			}
			return resource, s.addFiles(ctx, client, resource, pending, true)
		}},
		{Name: "touch_exported", Run: func(ctx context.Context, resource string) (string, error) {
			_, err := s.links.TouchExported(ctx, project.ID)
			return resource, err
		}},
	}

	if _, err := chain.Run(ctx, steps, link.Resource); err != nil {
		return nil, err
	}
	return s.links.GetByProject(ctx, project.ID)
}

// Get returns the stored link only if the remote resource still exists.
// The local record is kept either way.
func (s *ExportService) Get(ctx context.Context, userID string, projectID int64) (*domain.ExportLink, error) {
	link, err := s.links.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	exists, err := client.Exists(ctx, link.Resource)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrRemoteGone
	}
	return link, nil
}

// Delete removes the remote resource best-effort, then the local link
// unconditionally.
func (s *ExportService) Delete(ctx context.Context, userID string, projectID int64) error {
	link, err := s.links.GetByProject(ctx, projectID)
	if err != nil {
		return err
	}

	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return err
	}

	if err := client.DeleteResource(ctx, link.Resource); err != nil &&
		!errors.Is(err, hydroshare.ErrRemoteNotFound) {
		return err
	}
	return s.links.Delete(ctx, projectID)
}

// Linked reports whether the project already has an export link.
func (s *ExportService) Linked(ctx context.Context, projectID int64) (bool, error) {
	_, err := s.links.GetByProject(ctx, projectID)
	if errors.Is(err, domain.ErrLinkNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetAutosync is a pure local metadata update.
func (s *ExportService) SetAutosync(ctx context.Context, projectID int64, enabled bool) (*domain.ExportLink, error) {
	return s.links.SetAutosync(ctx, projectID, enabled)
}

func (s *ExportService) addFiles(ctx context.Context, client ResourceClient, resource string, files []domain.FileSpec, overwrite bool) error {
	for _, f := range files {
		if f.Name == "" || f.Empty() {
			continue
		}
		if overwrite {
			// Tolerates files that were never uploaded.
			if err := client.DeleteFile(ctx, resource, f.Name); err != nil {
				return err
			}
		}
		contents := f.Stream
		if contents == nil {
			contents = strings.NewReader(f.Contents)
		}
		if err := client.AddFile(ctx, resource, f.Name, contents); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) addShapefile(ctx context.Context, client ResourceClient, resource string, aoi []byte) error {
	tempdir, err := os.MkdirTemp("", "export-"+resource)
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempdir)

	paths, err := shapefile.Write(tempdir, shapefile.AOIBasename, aoi)
	if err != nil {
		return err
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		err = client.AddFile(ctx, resource, filepath.Base(path), f)
		f.Close()
		if err != nil {
			return err
		}
		os.Remove(path)
	}
	return nil
}

// mergeKeywords unions the default set with caller keywords; defaults are
// always present.
func mergeKeywords(extra []string) []string {
	out := append([]string{}, domain.DefaultKeywords...)
	seen := make(map[string]struct{}, len(out)+len(extra))
	for _, kw := range out {
		seen[kw] = struct{}{}
	}
	for _, kw := range extra {
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// analyzeFileNames extracts remote file names following the analysis
// artifact naming convention.
func analyzeFileNames(files []hydroshare.File) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range files {
		idx := strings.Index(f.URL, domain.AnalyzePrefix)
		if idx < 0 {
			continue
		}
		out[f.URL[idx+1:]] = struct{}{}
	}
	return out
}
