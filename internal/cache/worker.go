// Package cache is the offline asset gateway: a stale-while-revalidate
// cache between the app shell and its upstream origin. Each deployment
// owns one named bucket directory; activation deletes every other bucket.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNoUpstream = errors.New("no upstream configured")

// Entry is one cached response snapshot. Body is stored inline; per-key
// writes are last-write-wins.
type Entry struct {
	Path        string    `json:"path"`
	Status      int       `json:"status"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"body"`
	SavedAt     time.Time `json:"savedAt"`
}

type Options struct {
	Dir      string   // cache root holding one directory per bucket
	Bucket   string   // current bucket name, e.g. "dailytasks-cache-v1"
	Upstream string   // origin serving the real assets
	Precache []string // paths fetched at install time
	Client   *http.Client
}

type Worker struct {
	dir      string
	bucket   string
	upstream *url.URL
	precache []string
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewWorker(opts Options, log *zap.SugaredLogger) (*Worker, error) {
	if strings.TrimSpace(opts.Upstream) == "" {
		return nil, ErrNoUpstream
	}
	u, err := url.Parse(opts.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("bucket name is required")
	}
	if err := os.MkdirAll(filepath.Join(opts.Dir, opts.Bucket), 0o755); err != nil {
		return nil, err
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Worker{
		dir:      opts.Dir,
		bucket:   opts.Bucket,
		upstream: u,
		precache: opts.Precache,
		client:   client,
		log:      log,
	}, nil
}

// Install pre-populates the bucket with the app shell assets. A failed
// precache fetch fails the install.
func (w *Worker) Install(ctx context.Context) error {
	for _, p := range w.precache {
		if _, err := w.revalidate(ctx, p); err != nil {
			return fmt.Errorf("precache %s: %w", p, err)
		}
	}
	return nil
}

// Activate deletes every bucket directory except the current one, so assets
// cached by earlier deployments cannot be served again.
func (w *Worker) Activate(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == w.bucket {
			continue
		}
		w.log.Infow("deleting stale cache bucket", "bucket", e.Name())
		if err := os.RemoveAll(filepath.Join(w.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Fetch resolves a path with stale-while-revalidate: a cached entry is
// returned immediately while a network refresh runs in the background;
// with no cached entry the caller waits on the network, and a network
// failure then propagates.
func (w *Worker) Fetch(ctx context.Context, path string) (*Entry, error) {
	if cached, ok := w.lookup(path); ok {
		go func() {
			// background refresh outlives the request
			if _, err := w.revalidate(context.Background(), path); err != nil {
				w.log.Debugw("revalidate failed, cached copy stands", "path", path, "error", err)
			}
		}()
		return cached, nil
	}
	return w.revalidate(ctx, path)
}

// Handler adapts the worker to the app's resource-fetching path.
func (w *Worker) Handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		entry, err := w.Fetch(r.Context(), r.URL.RequestURI())
		if err != nil {
			http.Error(rw, "upstream unavailable", http.StatusBadGateway)
			return
		}
		if entry.ContentType != "" {
			rw.Header().Set("Content-Type", entry.ContentType)
		}
		rw.WriteHeader(entry.Status)
		if r.Method != http.MethodHead {
			_, _ = rw.Write(entry.Body)
		}
	})
}

func (w *Worker) entryPath(path string) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(w.dir, w.bucket, hex.EncodeToString(sum[:16])+".json")
}

func (w *Worker) lookup(path string) (*Entry, bool) {
	b, err := os.ReadFile(w.entryPath(path))
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		w.log.Warnw("corrupt cache entry dropped", "path", path, "error", err)
		_ = os.Remove(w.entryPath(path))
		return nil, false
	}
	return &e, true
}

// revalidate fetches the path from upstream and, on a success status,
// overwrites the cache entry. The network response is returned either way.
func (w *Worker) revalidate(ctx context.Context, path string) (*Entry, error) {
	target := *w.upstream
	parsed, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("bad path %q: %w", path, err)
	}
	target.Path = parsed.Path
	target.RawQuery = parsed.RawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Path:        path,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		SavedAt:     time.Now(),
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := w.store(path, e); err != nil {
			w.log.Warnw("cache store failed", "path", path, "error", err)
		}
	}
	return e, nil
}

func (w *Worker) store(path string, e *Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(w.entryPath(path), b, 0o644)
}
