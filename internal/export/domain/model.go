package domain

import (
	"errors"
	"io"
	"time"
)

var (
	ErrLinkNotFound = errors.New("project has no hydroshare link")
	ErrLinkExists   = errors.New("project already linked to hydroshare")
	ErrNoAOI        = errors.New("project has no area of interest")
	ErrRemoteGone   = errors.New("hydroshare could not find requested resource")
)

// Keywords stamped on every created resource, regardless of caller input.
var DefaultKeywords = []string{"mmw", "model-my-watershed"}

// AppKeyFlag marks resources created by this application.
const AppKeyFlag = `{"appkey": "model-my-watershed"}`

// AnalyzePrefix is the naming convention for analysis artifacts uploaded by
// the frontend; files already present remotely under this prefix are never
// re-uploaded on sync.
const AnalyzePrefix = "/analyze_"

// ExportLink ties a project to the HydroShare resource it was published to.
type ExportLink struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project"`
	Resource   string    `json:"resource"`
	Title      string    `json:"title"`
	Autosync   bool      `json:"autosync"`
	ExportedAt time.Time `json:"exported_at"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// FileSpec is one file destined for a resource: either inline text or a
// stream. Ephemeral, constructed per export request.
type FileSpec struct {
	Name     string
	Contents string
	Stream   io.Reader
}

// InlineText builds a FileSpec from a string payload.
func InlineText(name, contents string) FileSpec {
	return FileSpec{Name: name, Contents: contents}
}

// StreamSource builds a FileSpec from a reader.
func StreamSource(name string, r io.Reader) FileSpec {
	return FileSpec{Name: name, Stream: r}
}

// Empty reports whether the file has no content to upload.
func (f FileSpec) Empty() bool {
	return f.Stream == nil && f.Contents == ""
}
