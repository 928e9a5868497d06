package hydroshare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrRemoteNotFound means the remote resource (or file) does not exist.
var ErrRemoteNotFound = errors.New("hydroshare resource not found")

const (
	defaultTimeout = 30 * time.Second
	uploadTimeout  = 120 * time.Second

	// Requests per second against the HydroShare API. The service side
	// throttles aggressively, so we stay polite.
	requestsPerSecond = 5
)

// File is one entry of a resource's file list.
type File struct {
	Name string `json:"file_name"`
	URL  string `json:"url"`
}

// Client talks to one HydroShare instance with one user's access token.
// Construct per request via Service.ClientFor; it holds no mutable state.
type Client struct {
	baseURL       string
	token         string
	defaultClient *http.Client
	uploadClient  *http.Client
	limiter       *rate.Limiter
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:       baseURL,
		token:         accessToken,
		defaultClient: &http.Client{Timeout: defaultTimeout},
		uploadClient:  &http.Client{Timeout: uploadTimeout},
		limiter:       rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// CreateResource creates a new composite resource and returns its id.
func (c *Client) CreateResource(ctx context.Context, title, abstract string, keywords []string, extraMetadata string) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("resource_type", "CompositeResource")
	_ = w.WriteField("title", title)
	if abstract != "" {
		_ = w.WriteField("abstract", abstract)
	}
	for i, kw := range keywords {
		_ = w.WriteField("keywords["+strconv.Itoa(i)+"]", kw)
	}
	if extraMetadata != "" {
		_ = w.WriteField("extra_metadata", extraMetadata)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	resp, err := c.do(ctx, c.defaultClient, http.MethodPost, "/hsapi/resource/", body, w.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create resource: status %d", resp.StatusCode)
	}

	var out struct {
		ResourceID string `json:"resource_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("create resource: decode response: %w", err)
	}
	if out.ResourceID == "" {
		return "", fmt.Errorf("create resource: empty resource id")
	}
	return out.ResourceID, nil
}

// AddFile uploads one file into the resource.
func (c *Client) AddFile(ctx context.Context, resourceID, name string, contents io.Reader) error {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, contents); err != nil {
		return fmt.Errorf("add file %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	path := "/hsapi/resource/" + resourceID + "/files/"
	resp, err := c.do(ctx, c.uploadClient, http.MethodPost, path, body, w.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrRemoteNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("add file %s: status %d", name, resp.StatusCode)
	}
	return nil
}

// DeleteFile removes one file from the resource. Deleting a file that does
// not exist is not an error.
func (c *Client) DeleteFile(ctx context.Context, resourceID, name string) error {
	path := "/hsapi/resource/" + resourceID + "/files/" + url.PathEscape(name) + "/"
	resp, err := c.do(ctx, c.defaultClient, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("delete file %s: status %d", name, resp.StatusCode)
	}
	return nil
}

// ListFiles returns the resource's file list.
func (c *Client) ListFiles(ctx context.Context, resourceID string) ([]File, error) {
	path := "/hsapi/resource/" + resourceID + "/files/"
	resp, err := c.do(ctx, c.defaultClient, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRemoteNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list files: status %d", resp.StatusCode)
	}

	var out struct {
		Results []File `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("list files: decode response: %w", err)
	}
	return out.Results, nil
}

// Exists reports whether the resource is still present remotely.
func (c *Client) Exists(ctx context.Context, resourceID string) (bool, error) {
	path := "/hsapi/resource/" + resourceID + "/sysmeta/"
	resp, err := c.do(ctx, c.defaultClient, http.MethodGet, path, nil, "")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("resource sysmeta: status %d", resp.StatusCode)
	}
}

func (c *Client) SetPublic(ctx context.Context, resourceID string, public bool) error {
	flag := "make_public"
	if !public {
		flag = "make_private"
	}
	return c.setFlag(ctx, resourceID, flag)
}

func (c *Client) SetShareable(ctx context.Context, resourceID string, shareable bool) error {
	flag := "make_shareable"
	if !shareable {
		flag = "make_not_shareable"
	}
	return c.setFlag(ctx, resourceID, flag)
}

func (c *Client) setFlag(ctx context.Context, resourceID, flag string) error {
	form := url.Values{"t": {flag}}
	path := "/hsapi/resource/" + resourceID + "/flag/"
	resp, err := c.do(ctx, c.defaultClient, http.MethodPost, path,
		bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrRemoteNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("set flag %s: status %d", flag, resp.StatusCode)
	}
	return nil
}

// SetFileTypeMetadata marks the file at path with a HydroShare file type
// (e.g. GeoFeature), triggering metadata extraction remotely.
func (c *Client) SetFileTypeMetadata(ctx context.Context, resourceID, filePath, fileType string) error {
	path := "/hsapi/functions/" + resourceID + "/set-file-type/" + url.PathEscape(filePath) + "/" + fileType + "/"
	resp, err := c.do(ctx, c.defaultClient, http.MethodPost, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrRemoteNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("set file type %s: status %d", fileType, resp.StatusCode)
	}
	return nil
}

// DeleteResource removes the resource. An already-absent resource is fine.
func (c *Client) DeleteResource(ctx context.Context, resourceID string) error {
	path := "/hsapi/resource/" + resourceID + "/"
	resp, err := c.do(ctx, c.defaultClient, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("delete resource: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	recordRemoteCall(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("hydroshare request failed: %w", err)
	}
	return resp, nil
}
