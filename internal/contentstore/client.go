package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// defaultRequestTimeout bounds every content store call.
const defaultRequestTimeout = 30 * time.Second

// Client is an HTTP ContentStore implementation against a remote JSON
// content API, authenticated with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Ensure Client implements ContentStore.
var _ ContentStore = (*Client)(nil)

// NewClient creates a content store client for the given base URL and
// token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

// InsertDocument implements ContentStore.
func (c *Client) InsertDocument(ctx context.Context, doc Document) (*DocumentRef, error) {
	var ref DocumentRef
	if err := c.postJSON(ctx, "/api/documents", doc, &ref); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	if ref.ID == "" {
		return nil, fmt.Errorf("%w: insert returned no document id", ErrRemote)
	}
	return &ref, nil
}

// AttachMedia implements ContentStore. The raw bytes go up as an
// octet-stream with the filename hint in a query parameter.
func (c *Client) AttachMedia(ctx context.Context, data []byte, filenameHint string) (string, error) {
	endpoint := c.baseURL + "/api/media?filename=" + url.QueryEscape(filenameHint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("attach media: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("attach media: %w: %w", ErrRemote, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("attach media: %w: status %d", ErrRemote, resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("attach media: decode response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("attach media: %w: no media id returned", ErrRemote)
	}
	return result.ID, nil
}

// SetPrimaryImage implements ContentStore.
func (c *Client) SetPrimaryImage(ctx context.Context, docID, mediaID string) error {
	payload := map[string]string{"media_id": mediaID}
	path := "/api/documents/" + url.PathEscape(docID) + "/primary-image"
	if err := c.postJSON(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("set primary image: %w", err)
	}
	return nil
}

// EnsureTaxonomyTerms implements ContentStore.
func (c *Client) EnsureTaxonomyTerms(ctx context.Context, names []string) ([]string, error) {
	payload := map[string][]string{"names": names}
	var result struct {
		IDs []string `json:"ids"`
	}
	if err := c.postJSON(ctx, "/api/taxonomy/terms", payload, &result); err != nil {
		return nil, fmt.Errorf("ensure taxonomy terms: %w", err)
	}
	return result.IDs, nil
}

// SetTags implements ContentStore.
func (c *Client) SetTags(ctx context.Context, docID string, names []string) error {
	payload := map[string][]string{"names": names}
	path := "/api/documents/" + url.PathEscape(docID) + "/tags"
	if err := c.postJSON(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("set tags: %w", err)
	}
	return nil
}

// SetCategories implements ContentStore.
func (c *Client) SetCategories(ctx context.Context, docID string, ids []string) error {
	payload := map[string][]string{"ids": ids}
	path := "/api/documents/" + url.PathEscape(docID) + "/categories"
	if err := c.postJSON(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("set categories: %w", err)
	}
	return nil
}

// postJSON sends payload to path and decodes the response into out
// when out is non-nil. Non-2xx responses are reported as ErrRemote.
func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for diagnostics without trusting
		// its size.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
