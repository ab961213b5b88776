package worker

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/draftwire/draftwire/internal/domain"
)

// fetchTimeout bounds the whole image download, including the
// metadata probe.
const fetchTimeout = 5 * time.Minute

// maxImageBytes caps how much of a remote image the worker will buffer.
const maxImageBytes = 32 << 20

// extensionByContentType maps probe results to filename extensions.
var extensionByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageFetcher downloads a remote hero image and determines a usable
// filename for the media attachment.
type ImageFetcher struct {
	client *http.Client
}

// NewImageFetcher creates an ImageFetcher with the bounded timeout.
func NewImageFetcher() *ImageFetcher {
	return &ImageFetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch downloads the image at rawURL and returns its bytes together
// with a filename hint. Only https URLs are accepted; the admission
// endpoint already enforces this, the check here is defense in depth.
// If the URL path carries no extension, a HEAD probe infers one from
// the response content type.
func (f *ImageFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image URL: %w", err)
	}
	if u.Scheme != "https" {
		return nil, "", domain.ErrInsecureImage
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("image fetch failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("image read failed: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	filename := path.Base(u.Path)
	if filename == "." || filename == "/" || filename == "" {
		filename = "image"
	}

	if path.Ext(filename) == "" {
		ext := f.probeExtension(ctx, rawURL)
		if ext != "" {
			filename = filename + "." + ext
		}
	}

	return data, filename, nil
}

// probeExtension issues a HEAD request and maps the content type to a
// file extension. A failed probe leaves the filename extension-less
// rather than failing the whole attempt.
func (f *ImageFetcher) probeExtension(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return ""
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}

	return extensionByContentType[strings.ToLower(mediaType)]
}
