package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/model-my-watershed/mmw-backend/internal/boundary"
	"github.com/model-my-watershed/mmw-backend/internal/boundary/domain"
	"github.com/model-my-watershed/mmw-backend/internal/boundary/service"
)

type stubStore struct {
	shapes map[string][]byte
	hits   map[string][]domain.SearchResult
}

func (s *stubStore) LayerShape(_ context.Context, layer domain.Layer, id int64) ([]byte, error) {
	shape, ok := s.shapes[layer.Code]
	if !ok {
		return nil, domain.ErrShapeNotFound
	}
	return shape, nil
}

func (s *stubStore) SplitIntoHUC12s(_ context.Context, layer domain.Layer, id int64) ([]domain.Subunit, error) {
	return []domain.Subunit{{ID: "020402031003", Code: "huc12"}}, nil
}

func (s *stubStore) SearchLayer(_ context.Context, layer domain.Layer, term string) ([]domain.SearchResult, error) {
	return s.hits[layer.Code], nil
}

func setupRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewBoundaryService(boundary.DefaultRegistry(), store)
	r := gin.New()
	New(svc).Register(r.Group("/api/v1/boundary"))
	return r
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestLayersEndpoint(t *testing.T) {
	r := setupRouter(&stubStore{})

	w := get(r, "/api/v1/boundary/layers")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK     bool           `json:"ok"`
		Layers []domain.Layer `json:"layers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Layers, 6)
	assert.Equal(t, "huc8", resp.Layers[0].Code)
}

func TestShapeEndpoint(t *testing.T) {
	feature := []byte(`{"type":"Feature","id":42,"properties":{"huc":"02040203"}}`)
	r := setupRouter(&stubStore{shapes: map[string][]byte{"huc8": feature}})

	t.Run("returns the raw feature", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/shape/huc8/42")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, string(feature), w.Body.String())
	})

	t.Run("unknown layer", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/shape/zipcode/42")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing shape", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/shape/county/42")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/shape/huc8/abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubbasinsEndpoint(t *testing.T) {
	r := setupRouter(&stubStore{})

	t.Run("splits HUC-8 into HUC-12s", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/subbasins/huc8/42")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "020402031003")
	})

	t.Run("huc12 is not splittable", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/subbasins/huc12/42")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSearchEndpoint(t *testing.T) {
	r := setupRouter(&stubStore{hits: map[string][]domain.SearchResult{
		"huc8": {{ID: 2, Text: "Schuylkill"}},
	}})

	t.Run("returns ranked suggestions", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/search?text=schuylkill")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Suggestions []domain.SearchResult `json:"suggestions"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Suggestions, 1)
		assert.Equal(t, "huc8", resp.Suggestions[0].Code)
	})

	t.Run("short term yields an empty list", func(t *testing.T) {
		w := get(r, "/api/v1/boundary/search?text=sc")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"suggestions":[]}`, w.Body.String())
	})
}
