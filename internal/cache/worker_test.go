package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingUpstream struct {
	hits atomic.Int64
	srv  *httptest.Server
}

func newCountingUpstream(t *testing.T, status int, body string) *countingUpstream {
	t.Helper()
	up := &countingUpstream{}
	up.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(up.srv.Close)
	return up
}

func newWorkerForTests(t *testing.T, dir, upstream string) *Worker {
	t.Helper()
	w, err := NewWorker(Options{
		Dir:      dir,
		Bucket:   "dailytasks-cache-v1",
		Upstream: upstream,
		Precache: []string{"/", "/index.html"},
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return w
}

func TestWorker_InstallPrecachesAppShell(t *testing.T) {
	up := newCountingUpstream(t, 200, "<html>shell</html>")
	dir := t.TempDir()
	w := newWorkerForTests(t, dir, up.srv.URL)

	require.NoError(t, w.Install(context.Background()))
	assert.EqualValues(t, 2, up.hits.Load())

	// both shell paths resolvable with the upstream gone
	up.srv.Close()
	for _, p := range []string{"/", "/index.html"} {
		e, err := w.Fetch(context.Background(), p)
		require.NoError(t, err, p)
		assert.Equal(t, "<html>shell</html>", string(e.Body))
	}
}

func TestWorker_FirstFetchWaitsForNetworkAndStores(t *testing.T) {
	up := newCountingUpstream(t, 200, "v1")
	w := newWorkerForTests(t, t.TempDir(), up.srv.URL)

	e, err := w.Fetch(context.Background(), "/app.js")
	require.NoError(t, err)
	assert.Equal(t, 200, e.Status)
	assert.Equal(t, "v1", string(e.Body))
	assert.EqualValues(t, 1, up.hits.Load())

	_, ok := w.lookup("/app.js")
	assert.True(t, ok)
}

func TestWorker_SecondFetchServesCacheAndRevalidates(t *testing.T) {
	up := newCountingUpstream(t, 200, "v1")
	w := newWorkerForTests(t, t.TempDir(), up.srv.URL)

	_, err := w.Fetch(context.Background(), "/app.js")
	require.NoError(t, err)

	// upstream now serves new content; the stale copy comes back
	// immediately while the refresh happens in the background
	e, err := w.Fetch(context.Background(), "/app.js")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(e.Body))

	assert.Eventually(t, func() bool {
		return up.hits.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_ErrorStatusNotCached(t *testing.T) {
	up := newCountingUpstream(t, 500, "boom")
	w := newWorkerForTests(t, t.TempDir(), up.srv.URL)

	e, err := w.Fetch(context.Background(), "/app.js")
	require.NoError(t, err)
	assert.Equal(t, 500, e.Status)

	_, ok := w.lookup("/app.js")
	assert.False(t, ok)
}

func TestWorker_NetworkFailureNoCachePropagates(t *testing.T) {
	up := newCountingUpstream(t, 200, "x")
	url := up.srv.URL
	up.srv.Close()

	w := newWorkerForTests(t, t.TempDir(), url)
	_, err := w.Fetch(context.Background(), "/app.js")
	assert.Error(t, err)
}

func TestWorker_ActivateDropsForeignBuckets(t *testing.T) {
	up := newCountingUpstream(t, 200, "x")
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dailytasks-cache-v0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dailytasks-cache-v0", "old.json"), []byte(`{}`), 0o644))

	w := newWorkerForTests(t, dir, up.srv.URL)
	require.NoError(t, w.Activate(context.Background()))

	_, err := os.Stat(filepath.Join(dir, "dailytasks-cache-v0"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "dailytasks-cache-v1"))
	assert.NoError(t, err)
}

func TestWorker_HandlerServesEntries(t *testing.T) {
	up := newCountingUpstream(t, 200, "<html>ok</html>")
	w := newWorkerForTests(t, t.TempDir(), up.srv.URL)

	rec := httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<html>ok</html>", rec.Body.String())

	rec = httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, 405, rec.Code)
}
