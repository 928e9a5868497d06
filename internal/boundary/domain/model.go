package domain

import (
	"encoding/json"
	"errors"
)

var (
	ErrUnknownLayer       = errors.New("unknown boundary layer")
	ErrUnsupportedLayer   = errors.New("layer does not support subbasin splitting")
	ErrNoSearchableLayers = errors.New("no boundary layers are searchable")
	ErrShapeNotFound      = errors.New("shape not found")
)

// Layer describes one configured category of named geographic region.
// Layers are static configuration: the code is the public identifier,
// TableName the backing PostGIS table.
type Layer struct {
	Code         string `json:"code"`
	TableName    string `json:"-"`
	Display      string `json:"display"`
	ShortDisplay string `json:"short_display"`
	SearchRank   int    `json:"-"`
	Searchable   bool   `json:"searchable"`
}

// SearchResult is one suggestion produced by a boundary search. The shape
// matches the ArcGIS suggest endpoint response the frontend also consumes.
type SearchResult struct {
	ID    int64   `json:"id"`
	Code  string  `json:"code"`
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Rank  int     `json:"rank"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Subunit is one finer-grained watershed contained in a parent boundary.
type Subunit struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Geometry json.RawMessage `json:"geom"`
}
