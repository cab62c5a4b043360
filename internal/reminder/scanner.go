// Package reminder watches the task collection and emits a notification when
// a task enters its reminder window. The triggered-set lives in memory only:
// it dies with the process, so a still-open window can fire again after a
// restart. That matches the session semantics of the original app.
package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"dailytasks/internal/model"
)

// DefaultInterval is how often the scanner walks the task list.
const DefaultInterval = 30 * time.Second

// TaskSource is the read-only slice of store state the scanner needs.
type TaskSource interface {
	Tasks() []model.Task
}

// sessionSet holds the ids whose reminders already fired this session,
// keyed the same way the original app keyed its session storage.
type sessionSet struct {
	mu sync.Mutex
	m  map[string]bool
}

func newSessionSet() *sessionSet {
	return &sessionSet{m: map[string]bool{}}
}

func (s *sessionSet) key(id model.TaskID) string { return "notified_" + string(id) }

func (s *sessionSet) has(id model.TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[s.key(id)]
}

func (s *sessionSet) mark(id model.TaskID) {
	s.mu.Lock()
	s.m[s.key(id)] = true
	s.mu.Unlock()
}

type Scanner struct {
	source   TaskSource
	notifier Notifier
	clock    Clock
	loc      *time.Location
	interval time.Duration
	log      *zap.SugaredLogger
	seen     *sessionSet
}

type ScannerOptions struct {
	Clock    Clock          // nil = wall clock
	Location *time.Location // nil = time.Local
	Interval time.Duration  // <=0 = DefaultInterval
}

func NewScanner(source TaskSource, notifier Notifier, log *zap.SugaredLogger, opts ScannerOptions) *Scanner {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Scanner{
		source:   source,
		notifier: notifier,
		clock:    opts.Clock,
		loc:      opts.Location,
		interval: opts.Interval,
		log:      log,
		seen:     newSessionSet(),
	}
}

// Run ticks until the context is cancelled. Each tick runs to completion;
// there is no cancellation of an in-flight scan.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Scan()
		}
	}
}

// Scan walks the current task list once. A malformed date/time on one task
// is logged and must not stop the rest of the scan.
func (s *Scanner) Scan() {
	if s.notifier.Permission() != PermissionGranted {
		return
	}

	now := s.clock.Now()
	for _, t := range s.source.Tasks() {
		if t.Status == model.StatusDone || !t.HasReminder() {
			continue
		}
		if s.seen.has(t.ID) {
			continue
		}

		due, err := t.DueInstant(s.loc)
		if err != nil {
			s.log.Warnw("skipping reminder for task with bad date/time", "task_id", t.ID, "error", err)
			continue
		}
		remindAt := due.Add(-time.Duration(t.Reminder) * time.Minute)

		if !now.Before(remindAt) && now.Before(due) {
			s.notifier.Notify(Notification{
				TaskID: t.ID,
				Title:  "Task Reminder",
				Body:   "Your task \"" + t.Title + "\" is due soon.",
				At:     now,
			})
			s.seen.mark(t.ID)
		}
	}
}
