package boundary

import "github.com/model-my-watershed/mmw-backend/internal/boundary/domain"

// Registry maps boundary layer codes to their descriptors. It is built once
// from static configuration and read-only afterwards.
type Registry struct {
	layers []domain.Layer
	byCode map[string]domain.Layer
}

func NewRegistry(layers []domain.Layer) *Registry {
	byCode := make(map[string]domain.Layer, len(layers))
	for _, l := range layers {
		byCode[l.Code] = l
	}
	return &Registry{layers: layers, byCode: byCode}
}

// DefaultRegistry returns the boundary layers the application ships with.
func DefaultRegistry() *Registry {
	return NewRegistry([]domain.Layer{
		{Code: "huc8", TableName: "boundary_huc08", Display: "USGS Subbasin unit (HUC-8)",
			ShortDisplay: "HUC-8", SearchRank: 30, Searchable: true},
		{Code: "huc10", TableName: "boundary_huc10", Display: "USGS Watershed unit (HUC-10)",
			ShortDisplay: "HUC-10", SearchRank: 20, Searchable: true},
		{Code: "huc12", TableName: "boundary_huc12", Display: "USGS Subwatershed unit (HUC-12)",
			ShortDisplay: "HUC-12", SearchRank: 10, Searchable: true},
		{Code: "county", TableName: "boundary_county", Display: "County Lines",
			ShortDisplay: "County", SearchRank: 5, Searchable: true},
		{Code: "district", TableName: "boundary_district", Display: "Congressional Districts",
			ShortDisplay: "Congressional District"},
		{Code: "school", TableName: "boundary_school_district", Display: "School Districts",
			ShortDisplay: "School District"},
	})
}

func (r *Registry) Lookup(code string) (domain.Layer, bool) {
	l, ok := r.byCode[code]
	return l, ok
}

// All returns the layers in configuration order.
func (r *Registry) All() []domain.Layer {
	out := make([]domain.Layer, len(r.layers))
	copy(out, r.layers)
	return out
}

// Searchable returns the layers flagged for free-text search.
func (r *Registry) Searchable() []domain.Layer {
	out := make([]domain.Layer, 0, len(r.layers))
	for _, l := range r.layers {
		if l.Searchable {
			out = append(out, l)
		}
	}
	return out
}
