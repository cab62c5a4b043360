package reminder

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"dailytasks/internal/model"
)

// Permission mirrors the three notification permission states of the host
// environment.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type Notification struct {
	TaskID model.TaskID `json:"taskId"`
	Title  string       `json:"title"`
	Body   string       `json:"body"`
	At     time.Time    `json:"at"`
}

type Notifier interface {
	Permission() Permission
	Notify(n Notification)
}

// Feed is the in-process stand-in for the host notification capability: it
// keeps the most recent notifications for the presentation layer to poll and
// gates emission behind a settable permission state.
type Feed struct {
	mu    sync.Mutex
	perm  Permission
	items []Notification
	max   int
	log   *zap.SugaredLogger
}

func NewFeed(log *zap.SugaredLogger) *Feed {
	return &Feed{
		perm: PermissionDefault,
		max:  100,
		log:  log,
	}
}

func (f *Feed) Permission() Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perm
}

// SetPermission moves between the three states. A denied feed stays denied
// until explicitly changed; unknown values are ignored.
func (f *Feed) SetPermission(p Permission) bool {
	switch p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
	default:
		return false
	}
	f.mu.Lock()
	f.perm = p
	f.mu.Unlock()
	return true
}

func (f *Feed) Notify(n Notification) {
	f.mu.Lock()
	f.items = append(f.items, n)
	if len(f.items) > f.max {
		f.items = f.items[len(f.items)-f.max:]
	}
	f.mu.Unlock()

	f.log.Infow("reminder notification", "task_id", n.TaskID, "body", n.Body)
}

// Recent returns the buffered notifications, oldest first.
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}
