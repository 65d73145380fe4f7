package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// Fetcher returns the raw bytes behind an asset path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (io.ReadCloser, error)
}

// DirFetcher reads assets from a file system rooted at the project's
// resource directory.
type DirFetcher struct {
	FS fs.FS
}

func NewDirFetcher(root string) DirFetcher {
	return DirFetcher{FS: os.DirFS(root)}
}

func (d DirFetcher) Fetch(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := CleanPath(p)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: invalid path %q", ErrNotFound, p)
	}
	f, err := d.FS.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return f, nil
}

// HTTPFetcher downloads assets relative to BaseURL. Absolute http(s) paths
// are fetched as-is.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (h HTTPFetcher) Fetch(ctx context.Context, p string) (io.ReadCloser, error) {
	url := p
	if !strings.HasPrefix(p, "http://") && !strings.HasPrefix(p, "https://") {
		url = strings.TrimRight(h.BaseURL, "/") + "/" + CleanPath(p)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}
	return resp.Body, nil
}

// CleanPath is the canonical cache key for an asset path: project scheme
// and leading slashes removed, dot segments resolved.
func CleanPath(p string) string {
	p = strings.TrimPrefix(p, "res://")
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}
