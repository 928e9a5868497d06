package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/model-my-watershed/mmw-backend/internal/boundary"
	"github.com/model-my-watershed/mmw-backend/internal/boundary/domain"
)

// minSearchTermLength keeps very short terms from fanning out across every
// searchable table.
const minSearchTermLength = 3

// Store is the spatial query surface the service needs; satisfied by
// repository.Repo.
type Store interface {
	LayerShape(ctx context.Context, layer domain.Layer, id int64) ([]byte, error)
	SplitIntoHUC12s(ctx context.Context, layer domain.Layer, id int64) ([]domain.Subunit, error)
	SearchLayer(ctx context.Context, layer domain.Layer, term string) ([]domain.SearchResult, error)
}

// BoundaryService resolves boundary identifiers to geometry and ranks
// free-text queries against the configured layers.
type BoundaryService struct {
	registry *boundary.Registry
	store    Store
}

func NewBoundaryService(registry *boundary.Registry, store Store) *BoundaryService {
	return &BoundaryService{registry: registry, store: store}
}

func (s *BoundaryService) Layers() []domain.Layer {
	return s.registry.All()
}

// ShapeOf looks up the layer descriptor by code and returns the shape with
// the given id as a GeoJSON Feature.
func (s *BoundaryService) ShapeOf(ctx context.Context, code string, id int64) ([]byte, error) {
	layer, ok := s.registry.Lookup(code)
	if !ok {
		return nil, domain.ErrUnknownLayer
	}
	return s.store.LayerShape(ctx, layer, id)
}

// SplitIntoSubunits decomposes a parent boundary into its HUC-12s. Only HUC
// layers coarser than HUC-12 follow the table-name convention that makes
// this decomposable.
func (s *BoundaryService) SplitIntoSubunits(ctx context.Context, code string, id int64) ([]domain.Subunit, error) {
	layer, ok := s.registry.Lookup(code)
	if !ok {
		return nil, domain.ErrUnknownLayer
	}
	if !strings.HasPrefix(layer.TableName, "boundary_huc") || layer.TableName == "boundary_huc12" {
		return nil, domain.ErrUnsupportedLayer
	}
	return s.store.SplitIntoHUC12s(ctx, layer, id)
}

// SearchSuggestions matches the term against every searchable layer, tags
// each hit with the layer's rank and label, and returns the merged hits
// ordered by rank descending, then name ascending.
func (s *BoundaryService) SearchSuggestions(ctx context.Context, term string) ([]domain.SearchResult, error) {
	if utf8.RuneCountInString(term) < minSearchTermLength {
		return []domain.SearchResult{}, nil
	}

	layers := s.registry.Searchable()
	if len(layers) == 0 {
		return nil, domain.ErrNoSearchableLayers
	}

	merged := make([]domain.SearchResult, 0, 3*len(layers))
	for _, layer := range layers {
		hits, err := s.store.SearchLayer(ctx, layer, term)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			hit.Code = layer.Code
			hit.Label = layer.ShortDisplay
			hit.Rank = layer.SearchRank
			merged = append(merged, hit)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Rank != merged[j].Rank {
			return merged[i].Rank > merged[j].Rank
		}
		return merged[i].Text < merged[j].Text
	})

	return merged, nil
}
