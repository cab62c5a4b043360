package serverapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dailytasks/internal/config"
	"dailytasks/internal/model"
)

func newAppForTests(t *testing.T, upstream string) *App {
	t.Helper()
	cfg := &config.Config{
		DataDir: t.TempDir(),
		Cache:   config.Cache{Upstream: upstream},
	}
	cfg.ApplyDefaults()

	app, err := New(Options{Config: cfg, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	return app
}

func doJSON(t *testing.T, app *App, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	return rec
}

func TestApp_HealthAndReady(t *testing.T) {
	app := newAppForTests(t, "")

	rec := doJSON(t, app, http.MethodGet, "/healthz", nil)
	assert.Equal(t, 200, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = doJSON(t, app, http.MethodGet, "/readyz", nil)
	assert.Equal(t, 200, rec.Code)
}

func TestApp_TaskLifecycleOverHTTP(t *testing.T) {
	app := newAppForTests(t, "")

	// the store starts seeded; clear it through the API surface
	for _, task := range app.Store.Tasks() {
		rec := doJSON(t, app, http.MethodDelete, "/api/tasks/"+string(task.ID), nil)
		require.Equal(t, 200, rec.Code)
	}

	rec := doJSON(t, app, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "integration",
		"dueDate":  "2024-06-01",
		"priority": "Medium",
		"status":   "To Do",
	})
	require.Equal(t, 201, rec.Code)

	var created struct {
		Task model.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, app, http.MethodGet, "/api/tasks/date/2024-06-01", nil)
	require.Equal(t, 200, rec.Code)
	var list []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.Task.ID, list[0].ID)

	rec = doJSON(t, app, http.MethodGet, "/api/sync", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"persisted":true`)
}

func TestApp_DarkModePreferenceRoundTrip(t *testing.T) {
	app := newAppForTests(t, "")

	rec := doJSON(t, app, http.MethodGet, "/api/prefs/darkmode", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"darkMode":false`)

	rec = doJSON(t, app, http.MethodPut, "/api/prefs/darkmode", map[string]any{"darkMode": true})
	require.Equal(t, 200, rec.Code)

	rec = doJSON(t, app, http.MethodGet, "/api/prefs/darkmode", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"darkMode":true`)
}

func TestApp_AssetGatewayServesUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>shell</html>"))
	}))
	defer upstream.Close()

	app := newAppForTests(t, upstream.URL)
	require.NotNil(t, app.Worker)

	rec := doJSON(t, app, http.MethodGet, "/", nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "<html>shell</html>", rec.Body.String())

	// cached by install: still served after the upstream goes away
	upstream.Close()
	rec = doJSON(t, app, http.MethodGet, "/index.html", nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "<html>shell</html>", rec.Body.String())
}

func TestApp_NotificationPermissionFlow(t *testing.T) {
	app := newAppForTests(t, "")

	rec := doJSON(t, app, http.MethodPost, "/api/notifications/permission", map[string]any{"permission": "granted"})
	require.Equal(t, 200, rec.Code)

	rec = doJSON(t, app, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"permission":"granted"`)
}
