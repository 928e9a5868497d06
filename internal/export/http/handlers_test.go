package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/model-my-watershed/mmw-backend/internal/auth"
	"github.com/model-my-watershed/mmw-backend/internal/export/domain"
	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
	"github.com/model-my-watershed/mmw-backend/internal/export/service"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
	pdomain "github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

type stubClient struct {
	added []string
}

func (s *stubClient) CreateResource(context.Context, string, string, []string, string) (string, error) {
	return "abc123", nil
}

func (s *stubClient) AddFile(_ context.Context, _ string, name string, contents io.Reader) error {
	_, _ = io.ReadAll(contents)
	s.added = append(s.added, name)
	return nil
}

func (s *stubClient) DeleteFile(context.Context, string, string) error { return nil }

func (s *stubClient) ListFiles(context.Context, string) ([]hydroshare.File, error) {
	return nil, nil
}

func (s *stubClient) Exists(context.Context, string) (bool, error) { return true, nil }

func (s *stubClient) SetPublic(context.Context, string, bool) error    { return nil }
func (s *stubClient) SetShareable(context.Context, string, bool) error { return nil }

func (s *stubClient) SetFileTypeMetadata(context.Context, string, string, string) error {
	return nil
}

func (s *stubClient) DeleteResource(context.Context, string) error { return nil }

type stubProvider struct {
	client *stubClient
	err    error
}

func (s *stubProvider) ClientFor(context.Context, string) (service.ResourceClient, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

type stubLinks struct {
	byProject map[int64]*domain.ExportLink
}

func newStubLinks() *stubLinks {
	return &stubLinks{byProject: make(map[int64]*domain.ExportLink)}
}

func (s *stubLinks) Create(_ context.Context, projectID int64, resource, title string, autosync bool) (*domain.ExportLink, error) {
	if _, ok := s.byProject[projectID]; ok {
		return nil, domain.ErrLinkExists
	}
	link := &domain.ExportLink{
		ID: int64(len(s.byProject) + 1), ProjectID: projectID, Resource: resource,
		Title: title, Autosync: autosync, ExportedAt: time.Now(),
		CreatedAt: time.Now(), ModifiedAt: time.Now(),
	}
	s.byProject[projectID] = link
	return link, nil
}

func (s *stubLinks) GetByProject(_ context.Context, projectID int64) (*domain.ExportLink, error) {
	link, ok := s.byProject[projectID]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *stubLinks) SetAutosync(_ context.Context, projectID int64, enabled bool) (*domain.ExportLink, error) {
	link, ok := s.byProject[projectID]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	link.Autosync = enabled
	cp := *link
	return &cp, nil
}

func (s *stubLinks) TouchExported(_ context.Context, projectID int64) (*domain.ExportLink, error) {
	link, ok := s.byProject[projectID]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	link.ExportedAt = time.Now()
	cp := *link
	return &cp, nil
}

func (s *stubLinks) Delete(_ context.Context, projectID int64) error {
	delete(s.byProject, projectID)
	return nil
}

type stubProjects struct {
	byID map[int64]*pdomain.Project
}

func (s *stubProjects) Get(_ context.Context, _ string, id int64) (*pdomain.Project, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, pdomain.ErrNotFound
	}
	return p, nil
}

func (s *stubProjects) MakePublic(context.Context, int64) error { return nil }

type handlerFixture struct {
	router *gin.Engine
	client *stubClient
	links  *stubLinks
	jobs   *jobs.Repo
}

func setupHandler(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	jobRepo := jobs.NewRepo(rdb)

	client := &stubClient{}
	links := newStubLinks()
	projects := &stubProjects{byID: map[int64]*pdomain.Project{
		7: {
			ID: 7, UserID: "user-1", Name: "Schuylkill study",
			AreaOfInterest: json.RawMessage(
				`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`),
		},
	}}

	exports := service.NewExportService(&stubProvider{client: client}, links, projects)
	dispatcher := service.NewDispatcher(jobRepo)
	hs := hydroshare.NewService(hydroshare.Options{BaseURL: "https://www.hydroshare.org"}, nil)

	handler := New(exports, dispatcher, jobRepo, projects, hs)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(auth.CtxUserDBID, "user-1")
	})
	handler.Register(api.Group("/export"))
	handler.RegisterJobs(api)

	return &handlerFixture{router: r, client: client, links: links, jobs: jobRepo}
}

func (f *handlerFixture) do(method, target string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHydroshareEndpoint_ProjectValidation(t *testing.T) {
	f := setupHandler(t)

	t.Run("missing project param", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/export/hydroshare", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric project id", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/export/hydroshare?project=abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("project not owned or missing", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/export/hydroshare?project=99", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHydroshareEndpoint_Get(t *testing.T) {
	f := setupHandler(t)

	t.Run("unlinked project", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/export/hydroshare?project=7", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("linked project returns the link with its url", func(t *testing.T) {
		_, err := f.links.Create(context.Background(), 7, "abc123", "My Export", true)
		require.NoError(t, err)

		w := f.do(http.MethodGet, "/api/v1/export/hydroshare?project=7", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got linkResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "abc123", got.Resource)
		assert.Equal(t, "https://www.hydroshare.org/resource/abc123", got.URL)
	})
}

func TestHydroshareEndpoint_Post(t *testing.T) {
	f := setupHandler(t)

	body := `{"title":"My Export","keywords":["runoff"],"files":[{"name":"analyze_land.csv","contents":"soil,area\n"}]}`
	w := f.do(http.MethodPost, "/api/v1/export/hydroshare?project=7", body)
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		Job    string `json:"job"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.Job)
	assert.Equal(t, jobs.StatusStarted, accepted.Status)

	// The chain runs detached; poll the job until it lands.
	require.Eventually(t, func() bool {
		job, err := f.jobs.Get(context.Background(), accepted.Job)
		return err == nil && job.Status == jobs.StatusComplete
	}, 5*time.Second, 10*time.Millisecond)

	link, err := f.links.GetByProject(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "abc123", link.Resource)
	assert.Contains(t, f.client.added, "area-of-interest.shp")

	jobResp := f.do(http.MethodGet, "/api/v1/jobs/"+accepted.Job, "")
	require.Equal(t, http.StatusOK, jobResp.Code)
	assert.Contains(t, jobResp.Body.String(), jobs.StatusComplete)
}

func TestHydroshareEndpoint_PostWithoutBody(t *testing.T) {
	f := setupHandler(t)

	w := f.do(http.MethodPost, "/api/v1/export/hydroshare?project=7", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		Job string `json:"job"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))

	require.Eventually(t, func() bool {
		job, err := f.jobs.Get(context.Background(), accepted.Job)
		return err == nil && job.Status == jobs.StatusComplete
	}, 5*time.Second, 10*time.Millisecond)

	// Defaults apply: link created, autosync on.
	link, err := f.links.GetByProject(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, link.Autosync)
}

func TestHydroshareEndpoint_Patch(t *testing.T) {
	f := setupHandler(t)
	_, err := f.links.Create(context.Background(), 7, "abc123", "My Export", true)
	require.NoError(t, err)

	t.Run("missing autosync flag", func(t *testing.T) {
		w := f.do(http.MethodPatch, "/api/v1/export/hydroshare?project=7", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("disables autosync", func(t *testing.T) {
		w := f.do(http.MethodPatch, "/api/v1/export/hydroshare?project=7", `{"autosync":false}`)
		require.Equal(t, http.StatusOK, w.Code)

		link, err := f.links.GetByProject(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, link.Autosync)
	})
}

func TestHydroshareEndpoint_Delete(t *testing.T) {
	f := setupHandler(t)
	_, err := f.links.Create(context.Background(), 7, "abc123", "My Export", true)
	require.NoError(t, err)

	w := f.do(http.MethodDelete, "/api/v1/export/hydroshare?project=7", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err = f.links.GetByProject(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestShapefileEndpoint(t *testing.T) {
	f := setupHandler(t)

	t.Run("returns a zip attachment", func(t *testing.T) {
		body := `{"shape":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]},"filename":"aoi"}`
		w := f.do(http.MethodPost, "/api/v1/export/shapefile", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="aoi.zip"`, w.Header().Get("Content-Disposition"))
		assert.NotEmpty(t, w.Body.Bytes())
	})

	t.Run("rejects unsupported geometry", func(t *testing.T) {
		body := `{"shape":{"type":"Point","coordinates":[1,2]}}`
		w := f.do(http.MethodPost, "/api/v1/export/shapefile", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an empty body", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/export/shapefile", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJobStatusEndpoint_Unknown(t *testing.T) {
	f := setupHandler(t)

	w := f.do(http.MethodGet, "/api/v1/jobs/no-such-job", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
