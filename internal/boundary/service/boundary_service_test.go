package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/model-my-watershed/mmw-backend/internal/boundary"
	"github.com/model-my-watershed/mmw-backend/internal/boundary/domain"
)

// fakeStore serves canned per-layer results and records which layers were
// queried.
type fakeStore struct {
	shapes    map[string][]byte
	subunits  map[string][]domain.Subunit
	hits      map[string][]domain.SearchResult
	searchErr error
	queried   []string
}

func (f *fakeStore) LayerShape(_ context.Context, layer domain.Layer, id int64) ([]byte, error) {
	shape, ok := f.shapes[layer.Code]
	if !ok {
		return nil, domain.ErrShapeNotFound
	}
	return shape, nil
}

func (f *fakeStore) SplitIntoHUC12s(_ context.Context, layer domain.Layer, id int64) ([]domain.Subunit, error) {
	return f.subunits[layer.Code], nil
}

func (f *fakeStore) SearchLayer(_ context.Context, layer domain.Layer, term string) ([]domain.SearchResult, error) {
	f.queried = append(f.queried, layer.Code)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits[layer.Code], nil
}

func TestBoundaryService_ShapeOf(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{shapes: map[string][]byte{
		"huc8": []byte(`{"type":"Feature","properties":{"huc":"02040203"}}`),
	}}
	svc := NewBoundaryService(boundary.DefaultRegistry(), store)

	t.Run("returns the feature for a known layer", func(t *testing.T) {
		shape, err := svc.ShapeOf(ctx, "huc8", 42)
		require.NoError(t, err)
		assert.Contains(t, string(shape), "02040203")
	})

	t.Run("unknown layer code", func(t *testing.T) {
		_, err := svc.ShapeOf(ctx, "zipcode", 42)
		assert.ErrorIs(t, err, domain.ErrUnknownLayer)
	})

	t.Run("missing shape id", func(t *testing.T) {
		_, err := svc.ShapeOf(ctx, "county", 42)
		assert.ErrorIs(t, err, domain.ErrShapeNotFound)
	})
}

func TestBoundaryService_SplitIntoSubunits(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{subunits: map[string][]domain.Subunit{
		"huc8": {
			{ID: "020402031003", Code: "huc12"},
			{ID: "020402031004", Code: "huc12"},
		},
	}}
	svc := NewBoundaryService(boundary.DefaultRegistry(), store)

	t.Run("splits a HUC-8 into HUC-12s", func(t *testing.T) {
		subs, err := svc.SplitIntoSubunits(ctx, "huc8", 42)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, "020402031003", subs[0].ID)
	})

	t.Run("huc12 cannot be split further", func(t *testing.T) {
		_, err := svc.SplitIntoSubunits(ctx, "huc12", 42)
		assert.ErrorIs(t, err, domain.ErrUnsupportedLayer)
	})

	t.Run("non-HUC layers cannot be split", func(t *testing.T) {
		_, err := svc.SplitIntoSubunits(ctx, "county", 42)
		assert.ErrorIs(t, err, domain.ErrUnsupportedLayer)
	})

	t.Run("unknown layer code", func(t *testing.T) {
		_, err := svc.SplitIntoSubunits(ctx, "zipcode", 42)
		assert.ErrorIs(t, err, domain.ErrUnknownLayer)
	})
}

func TestBoundaryService_SearchSuggestions(t *testing.T) {
	ctx := context.Background()

	t.Run("short terms return no results without querying", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewBoundaryService(boundary.DefaultRegistry(), store)

		// "sc" and "ぶん" are both two characters; the multibyte one must
		// not slip past a byte-length check.
		for _, term := range []string{"", "s", "sc", "ぶん"} {
			results, err := svc.SearchSuggestions(ctx, term)
			require.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		}
		assert.Empty(t, store.queried, "short terms must not hit the database")
	})

	t.Run("merges hits ordered by rank then name", func(t *testing.T) {
		store := &fakeStore{hits: map[string][]domain.SearchResult{
			"county": {
				{ID: 1, Text: "Schuylkill County", X: -76.2, Y: 40.7},
			},
			"huc8": {
				{ID: 2, Text: "Schuylkill", X: -75.8, Y: 40.3},
			},
			"huc12": {
				{ID: 3, Text: "Schuylkill River-Plymouth Creek"},
				{ID: 4, Text: "Lower Schuylkill"},
			},
		}}
		svc := NewBoundaryService(boundary.DefaultRegistry(), store)

		results, err := svc.SearchSuggestions(ctx, "schuylkill")
		require.NoError(t, err)
		require.Len(t, results, 4)

		// HUC-8 (rank 30) first, HUC-12 (rank 10) name-ordered, county last.
		assert.Equal(t, "Schuylkill", results[0].Text)
		assert.Equal(t, "huc8", results[0].Code)
		assert.Equal(t, "HUC-8", results[0].Label)
		assert.Equal(t, 30, results[0].Rank)

		assert.Equal(t, "Lower Schuylkill", results[1].Text)
		assert.Equal(t, "Schuylkill River-Plymouth Creek", results[2].Text)

		assert.Equal(t, "Schuylkill County", results[3].Text)
		assert.Equal(t, "county", results[3].Code)
		assert.Equal(t, 5, results[3].Rank)

		assert.Equal(t, []string{"huc8", "huc10", "huc12", "county"}, store.queried)
	})

	t.Run("no searchable layers configured", func(t *testing.T) {
		registry := boundary.NewRegistry([]domain.Layer{
			{Code: "district", TableName: "boundary_district"},
		})
		svc := NewBoundaryService(registry, &fakeStore{})

		_, err := svc.SearchSuggestions(ctx, "schuylkill")
		assert.ErrorIs(t, err, domain.ErrNoSearchableLayers)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		boom := errors.New("connection reset")
		store := &fakeStore{searchErr: boom}
		svc := NewBoundaryService(boundary.DefaultRegistry(), store)

		_, err := svc.SearchSuggestions(ctx, "schuylkill")
		assert.ErrorIs(t, err, boom)
	})
}
