package task

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"dailytasks/internal/model"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// TaskDraft is the create payload: a task minus its id.
type TaskDraft struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DueDate     string             `json:"dueDate"`
	DueTime     string             `json:"dueTime,omitempty"`
	Priority    model.Priority     `json:"priority"`
	Status      model.Status       `json:"status"`
	Reminder    int                `json:"reminderMinutes,omitempty"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		ts := h.store.List(Filter{
			Search:   q.Get("q"),
			Status:   q.Get("status"),
			Priority: q.Get("priority"),
		})
		writeJSON(w, 200, ts)
		return

	case http.MethodPost:
		var in TaskDraft
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if !dateRe.MatchString(in.DueDate) {
			writeErr(w, 400, "dueDate must be YYYY-MM-DD")
			return
		}
		if !model.ValidPriority(in.Priority) {
			writeErr(w, 400, "unknown priority")
			return
		}
		if !model.ValidStatus(in.Status) {
			writeErr(w, 400, "unknown status")
			return
		}
		for i, a := range in.Attachments {
			if strings.TrimSpace(a.ID) == "" {
				in.Attachments[i] = model.NewAttachment(a.Name, a.Type, a.DataURL)
			}
		}

		t, err := h.store.Add(model.Task{
			Title:       in.Title,
			Description: in.Description,
			DueDate:     in.DueDate,
			DueTime:     in.DueTime,
			Priority:    in.Priority,
			Status:      in.Status,
			Reminder:    in.Reminder,
			Attachments: in.Attachments,
		})
		if err != nil {
			if err == ErrEmptyTitle {
				writeErr(w, 400, err.Error())
				return
			}
			writeErr(w, 500, err.Error())
			return
		}

		writeJSON(w, 201, map[string]any{
			"task":      t,
			"persisted": h.store.Sync().Persisted,
		})
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/tasks/{id}
// /api/tasks/{id}/calendar.ics
// /api/tasks/date/{YYYY-MM-DD}
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	tail = strings.Trim(tail, "/")
	if tail == "" {
		writeErr(w, 404, "not found")
		return
	}

	parts := strings.Split(tail, "/")

	if parts[0] == "date" {
		if r.Method != http.MethodGet || len(parts) != 2 {
			writeErr(w, 404, "not found")
			return
		}
		if !dateRe.MatchString(parts[1]) {
			writeErr(w, 400, "date must be YYYY-MM-DD")
			return
		}
		writeJSON(w, 200, h.store.TasksForDate(parts[1]))
		return
	}

	id := model.TaskID(parts[0])

	if len(parts) == 2 && parts[1] == "calendar.ics" {
		h.serveICS(w, r, id)
		return
	}
	if len(parts) != 1 {
		writeErr(w, 404, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.store.Get(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		writeJSON(w, 200, t)
		return

	case http.MethodPut:
		var in model.Task
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		in.ID = id
		updated := h.store.Update(in)
		writeJSON(w, 200, map[string]any{
			"task":      in,
			"updated":   updated,
			"persisted": h.store.Sync().Persisted,
		})
		return

	case http.MethodDelete:
		deleted := h.store.Delete(id)
		writeJSON(w, 200, map[string]any{
			"deleted":   deleted,
			"persisted": h.store.Sync().Persisted,
		})
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/calendar?month=YYYY-MM
func (h *Handler) CalendarMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if !monthRe.MatchString(month) {
		writeErr(w, 400, "month must be YYYY-MM")
		return
	}
	writeJSON(w, 200, map[string]any{
		"month": month,
		"days":  h.store.Month(month),
	})
}

func (h *Handler) serveICS(w http.ResponseWriter, r *http.Request, id model.TaskID) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	t, err := h.store.Get(id)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	ics, err := BuildTaskCalendarICS(t, time.Now())
	if err != nil {
		writeErr(w, 400, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="task.ics"`)
	w.WriteHeader(200)
	_, _ = w.Write([]byte(ics))
}
