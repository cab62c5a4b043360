package reminder

import (
	"encoding/json"
	"net/http"
)

type Handler struct {
	feed *Feed
}

func NewHandler(feed *Feed) *Handler {
	return &Handler{feed: feed}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// /api/notifications
func (h *Handler) NotificationsRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, 405, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, 200, map[string]any{
		"permission":    h.feed.Permission(),
		"notifications": h.feed.Recent(),
	})
}

// /api/notifications/permission
func (h *Handler) PermissionRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, 405, map[string]any{"error": "method not allowed"})
		return
	}
	var in struct {
		Permission Permission `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, 400, map[string]any{"error": "bad json"})
		return
	}
	if !h.feed.SetPermission(in.Permission) {
		writeJSON(w, 400, map[string]any{"error": "permission must be default, granted or denied"})
		return
	}
	writeJSON(w, 200, map[string]any{"permission": h.feed.Permission()})
}
