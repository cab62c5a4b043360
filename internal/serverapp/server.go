package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"dailytasks/internal/cache"
	"dailytasks/internal/config"
	"dailytasks/internal/httpmw"
	"dailytasks/internal/reminder"
	"dailytasks/internal/storage"
	"dailytasks/internal/task"
)

const darkModeKey = "darkMode"

type Options struct {
	Config *config.Config
	Logger *zap.SugaredLogger
}

// App is the assembled application: one HTTP surface plus the reminder
// scanner the caller runs alongside it.
type App struct {
	Handler http.Handler
	Store   *task.Store
	Scanner *reminder.Scanner

	// Worker is nil when no upstream origin is configured; the API still
	// works, only the asset gateway is absent.
	Worker *cache.Worker
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	cfg := opts.Config
	log := opts.Logger

	kv, err := storage.NewFileKV(filepath.Join(cfg.DataDir, "store"), cfg.Storage.QuotaBytes)
	if err != nil {
		return nil, err
	}

	store := task.NewStore(kv, log)
	taskHandler := task.NewHandler(store)

	feed := reminder.NewFeed(log)
	scanner := reminder.NewScanner(store, feed, log, reminder.ScannerOptions{
		Interval: time.Duration(cfg.Reminders.IntervalSeconds) * time.Second,
	})
	notifHandler := reminder.NewHandler(feed)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "dailytasks",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, _, err := kv.Get(task.StorageKey); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "dailytasks",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)
	mux.HandleFunc("/api/calendar", taskHandler.CalendarMonth)

	mux.HandleFunc("/api/notifications", notifHandler.NotificationsRoot)
	mux.HandleFunc("/api/notifications/permission", notifHandler.PermissionRoot)

	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, store.Sync())
	})

	mux.HandleFunc("/api/prefs/darkmode", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			enabled := false
			if b, ok, err := kv.Get(darkModeKey); err == nil && ok {
				_ = json.Unmarshal(b, &enabled)
			}
			writeJSON(w, http.StatusOK, map[string]any{"darkMode": enabled})

		case http.MethodPut:
			var in struct {
				DarkMode bool `json:"darkMode"`
			}
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad json"})
				return
			}
			b, _ := json.Marshal(in.DarkMode)
			if err := kv.Set(darkModeKey, b); err != nil {
				log.Errorw("save dark mode preference", "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "could not save preference"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"darkMode": in.DarkMode})

		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	})

	app := &App{
		Store:   store,
		Scanner: scanner,
	}

	if cfg.Cache.Upstream != "" {
		worker, err := cache.NewWorker(cache.Options{
			Dir:      filepath.Join(cfg.DataDir, "cache"),
			Bucket:   cfg.Cache.BucketName(),
			Upstream: cfg.Cache.Upstream,
			Precache: cfg.Cache.Precache,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := worker.Install(context.Background()); err != nil {
			// degraded start: assets fill the cache lazily on first fetch
			log.Warnw("asset precache failed", "error", err)
		}
		if err := worker.Activate(context.Background()); err != nil {
			log.Warnw("stale cache cleanup failed", "error", err)
		}
		mux.Handle("/", worker.Handler())
		app.Worker = worker
	} else {
		log.Infow("no asset upstream configured, serving API only")
	}

	app.Handler = httpmw.Chain(
		mux,
		httpmw.WithAccessLog(log),
		httpmw.WithRequestID,
		httpmw.WithRecover(log),
	)
	return app, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
