package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("project not found")
	ErrNameRequired = errors.New("project name required")
)

// Model packages a project can be created with.
const (
	TR55  = "tr-55"
	GWLFE = "gwlfe"
)

// Project is the base record all scenarios of a modeling session hang off.
// AreaOfInterest holds the AOI multipolygon as GeoJSON; it is stored as a
// PostGIS geometry column and serialized in SQL.
type Project struct {
	ID                 int64           `json:"id"`
	UserID             string          `json:"user_id"`
	Name               string          `json:"name"`
	AreaOfInterest     json.RawMessage `json:"area_of_interest,omitempty"`
	AreaOfInterestName string          `json:"area_of_interest_name,omitempty"`
	IsPrivate          bool            `json:"is_private"`
	ModelPackage       string          `json:"model_package"`
	GISData            string          `json:"gis_data,omitempty"`
	WKAoI              string          `json:"wkaoi,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	ModifiedAt         time.Time       `json:"modified_at"`
}

// Scenario captures one set of inputs and modifications against a project's
// area of interest. Serialized blobs are opaque to the backend.
type Scenario struct {
	ID                   int64     `json:"id"`
	ProjectID            int64     `json:"project"`
	Name                 string    `json:"name"`
	IsCurrentConditions  bool      `json:"is_current_conditions"`
	Inputs               string    `json:"inputs,omitempty"`
	Modifications        string    `json:"modifications,omitempty"`
	Results              string    `json:"results,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	ModifiedAt           time.Time `json:"modified_at"`
}

func ValidModelPackage(pkg string) bool {
	return pkg == TR55 || pkg == GWLFE
}
