package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// MaxAssetBytes bounds a single download
const MaxAssetBytes = 32 << 20

// ErrUnreachable marks a source that could not be retrieved or probed
var ErrUnreachable = errors.New("asset unreachable")

// HTTPFetcher downloads assets over http(s)
type HTTPFetcher struct {
	client ports.HTTPClient
}

// NewHTTPFetcher creates a fetcher using client
func NewHTTPFetcher(client ports.HTTPClient) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch downloads source
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (ports.FetchedAsset, error) {
	resp, err := f.client.Get(ctx, source)
	if err != nil {
		return ports.FetchedAsset{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ports.FetchedAsset{}, fmt.Errorf("%w: %s returned %d", ErrUnreachable, source, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetBytes+1))
	if err != nil {
		return ports.FetchedAsset{}, fmt.Errorf("reading %s: %w", source, err)
	}
	if len(data) > MaxAssetBytes {
		return ports.FetchedAsset{}, fmt.Errorf("%s exceeds %d bytes", source, MaxAssetBytes)
	}
	return ports.FetchedAsset{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

// Probe issues a HEAD request; any non-2xx/3xx status is unreachable.
// Servers that reject HEAD with 405 are retried once with GET.
func (f *HTTPFetcher) Probe(ctx context.Context, source string) error {
	resp, err := f.client.Head(ctx, source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		resp, err = f.client.Get(ctx, source)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		_ = resp.Body.Close()
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s returned %d", ErrUnreachable, source, resp.StatusCode)
	}
	return nil
}

// FileFetcher reads assets from the local filesystem
type FileFetcher struct {
	baseDir string
}

// NewFileFetcher resolves relative paths against baseDir
func NewFileFetcher(baseDir string) *FileFetcher {
	return &FileFetcher{baseDir: baseDir}
}

// Fetch reads the file at source
func (f *FileFetcher) Fetch(_ context.Context, source string) (ports.FetchedAsset, error) {
	path := f.resolve(source)
	info, err := os.Stat(path)
	if err != nil {
		return ports.FetchedAsset{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if info.IsDir() {
		return ports.FetchedAsset{}, fmt.Errorf("%w: %s is a directory", ErrUnreachable, path)
	}
	if info.Size() > MaxAssetBytes {
		return ports.FetchedAsset{}, fmt.Errorf("%s exceeds %d bytes", path, MaxAssetBytes)
	}

	data, err := os.ReadFile(path) // #nosec G304 - deck-referenced asset path
	if err != nil {
		return ports.FetchedAsset{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ports.FetchedAsset{Data: data, ContentType: mime.TypeByExtension(filepath.Ext(path))}, nil
}

// Probe checks that the file exists and is a regular file
func (f *FileFetcher) Probe(_ context.Context, source string) error {
	info, err := os.Stat(f.resolve(source))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrUnreachable, source)
	}
	return nil
}

func (f *FileFetcher) resolve(source string) string {
	p := strings.TrimPrefix(strings.TrimSpace(source), "file://")
	if !filepath.IsAbs(p) && f.baseDir != "" {
		p = filepath.Join(f.baseDir, p)
	}
	return filepath.Clean(p)
}

// Router dispatches on the source scheme: http(s) to the HTTP fetcher,
// everything else to the file fetcher
type Router struct {
	http *HTTPFetcher
	file *FileFetcher
}

// NewRouter creates a scheme-dispatching fetcher and prober
func NewRouter(client ports.HTTPClient, baseDir string) *Router {
	return &Router{http: NewHTTPFetcher(client), file: NewFileFetcher(baseDir)}
}

// Fetch retrieves source
func (r *Router) Fetch(ctx context.Context, source string) (ports.FetchedAsset, error) {
	if IsRemote(source) {
		return r.http.Fetch(ctx, source)
	}
	return r.file.Fetch(ctx, source)
}

// Probe checks source reachability
func (r *Router) Probe(ctx context.Context, source string) error {
	if IsRemote(source) {
		return r.http.Probe(ctx, source)
	}
	return r.file.Probe(ctx, source)
}

// IsRemote reports whether source is an http(s) URL
func IsRemote(source string) bool {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

var (
	_ ports.AssetFetcher = (*Router)(nil)
	_ ports.AssetProber  = (*Router)(nil)
	_ ports.AssetFetcher = (*HTTPFetcher)(nil)
	_ ports.AssetFetcher = (*FileFetcher)(nil)
)
