package httpblob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/storage"
)

// DefaultBaseURL is the public jsonblob endpoint
const DefaultBaseURL = "https://jsonblob.com/api/jsonBlob"

// maxBodySize bounds how much of a response is read
const maxBodySize = 1 << 20

// Client is a BlobStore over a jsonblob-style HTTP service: POST to the base
// URL creates a document and answers with its location, GET and PUT on
// base/{id} read and replace it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL; an empty URL uses DefaultBaseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTP creates a client using a caller-provided http.Client
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	c := NewClient(baseURL, 0)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// Create posts a new document and returns the id taken from the response
func (c *Client) Create(ctx context.Context, data []byte) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.baseURL, data)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	id := idFromLocation(resp.Header.Get("Location"))
	if id == "" {
		id = resp.Header.Get("X-Jsonblob-Id")
	}
	if id == "" {
		return "", fmt.Errorf("create blob: response carried no location")
	}
	return id, nil
}

// Get fetches the full document
func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", storage.ErrBlobNotFound)
	}

	resp, err := c.do(ctx, http.MethodGet, c.blobURL(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", id, err)
	}
	return body, nil
}

// Put replaces the full document
func (c *Client) Put(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", storage.ErrBlobNotFound)
	}

	resp, err := c.do(ctx, http.MethodPut, c.blobURL(id), data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", storage.ErrBlobNotFound, id)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	return nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) blobURL(id string) string {
	return c.baseURL + "/" + id
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("API error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
}

// idFromLocation returns the last path segment of a Location header
func idFromLocation(location string) string {
	if location == "" {
		return ""
	}
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	id := path.Base(strings.TrimRight(location, "/"))
	if id == "." || id == "/" {
		return ""
	}
	return id
}
