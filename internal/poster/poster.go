// Package poster serves poster images from a local cache directory,
// downloading them on demand when offline posters are enabled.
package poster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// Kind is the per-entity cache subdirectory.
type Kind string

const (
	KindMovies Kind = "movies"
	KindSeries Kind = "series"
)

const maxPosterBytes = 32 << 20

// ErrInvalidID is returned for item ids that cannot name a cache file.
var ErrInvalidID = errors.New("invalid poster id")

// Resolver maps remote poster URLs to cached files.
type Resolver struct {
	root       string
	maxBytes   int
	httpClient *http.Client
	authorize  func(*http.Request)
	log        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// WithAuthorizer decorates every download request, typically with server credentials.
func WithAuthorizer(fn func(*http.Request)) Option {
	return func(r *Resolver) {
		r.authorize = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// New creates a resolver that caches under dir/posters.
func New(dir string, opts ...Option) *Resolver {
	r := &Resolver{
		root:       filepath.Join(dir, "posters"),
		maxBytes:   maxPosterBytes,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "poster")
	return r
}

// Path returns the cache file for an item. Ids that are empty, contain a
// path separator or are a dot segment are rejected with ErrInvalidID.
func (r *Resolver) Path(kind Kind, id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	dir := filepath.Join(r.root, string(kind))
	path := filepath.Join(dir, id+".jpg")
	if filepath.Dir(path) != dir {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return path, nil
}

// Resolve returns the reference a poster should be served from. A non-empty
// cached file always wins. Otherwise the remote URL is returned unless offline
// posters are enabled and the download succeeds.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, id, remoteURL string, offline bool) string {
	if remoteURL == "" {
		return remoteURL
	}

	path, err := r.Path(kind, id)
	if err != nil {
		r.log.Warn("poster id rejected", "kind", kind, "id", id)
		return remoteURL
	}
	if cached(path) {
		return fileURI(path)
	}
	if !offline {
		return remoteURL
	}

	if err := r.download(ctx, remoteURL, path); err != nil {
		r.log.Debug("poster download failed", "kind", kind, "id", id, "error", err)
		return remoteURL
	}
	return fileURI(path)
}

func (r *Resolver) download(ctx context.Context, remoteURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if r.authorize != nil {
		r.authorize(req)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("poster request: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(r.maxBytes)+1))
	if err != nil {
		return fmt.Errorf("read poster: %w", err)
	}
	if len(data) > r.maxBytes {
		return fmt.Errorf("poster exceeds %d bytes", r.maxBytes)
	}
	if len(data) == 0 {
		return errors.New("empty poster body")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create poster dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write poster: %w", err)
	}
	return nil
}

// Clear removes every cached poster of the given kinds.
func (r *Resolver) Clear(kinds ...Kind) error {
	for _, kind := range kinds {
		if err := os.RemoveAll(filepath.Join(r.root, string(kind))); err != nil {
			return fmt.Errorf("clear %s posters: %w", kind, err)
		}
	}
	return nil
}

// Usage summarizes the poster cache.
type Usage struct {
	Files int
	Bytes int64
}

// Usage walks the cache directory. A missing directory reports zero usage.
func (r *Resolver) Usage() (Usage, error) {
	var u Usage
	err := filepath.WalkDir(r.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		u.Files++
		u.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return Usage{}, fmt.Errorf("poster usage: %w", err)
	}
	return u, nil
}

func cached(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
