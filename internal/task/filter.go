package task

import (
	"sort"
	"strings"

	"dailytasks/internal/model"
)

// Filter is the read-only view the presentation layer drives. Each field is
// independently optional ("" or "all" means no filter); set fields compose
// with AND.
type Filter struct {
	// Search matches as a case-insensitive substring of the title.
	Search string

	// Status: "" | "all" | exact status value.
	Status string

	// Priority: "" | "all" | exact priority value.
	Priority string
}

func wantsAll(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || v == "all"
}

func (f Filter) matches(t model.Task) bool {
	if f.Search != "" &&
		!strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	if !wantsAll(f.Status) && string(t.Status) != f.Status {
		return false
	}
	if !wantsAll(f.Priority) && string(t.Priority) != f.Priority {
		return false
	}
	return true
}

// List returns the filtered collection sorted ascending by due date.
// Canonical YYYY-MM-DD strings compare lexicographically, and the sort is
// stable so equal dates keep their insertion order.
func (s *Store) List(f Filter) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Task{}
	for _, t := range s.tasks {
		if f.matches(t) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate < out[j].DueDate
	})
	return out
}
