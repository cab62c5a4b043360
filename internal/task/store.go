package task

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"dailytasks/internal/model"
)

var (
	ErrNotFound   = errors.New("task not found")
	ErrEmptyTitle = errors.New("task title must not be empty")
)

// StorageKey is the durable slot the whole collection serializes into.
const StorageKey = "tasks"

// SoftWarnBytes is the serialized size past which the store starts warning;
// inline attachments are what gets collections there.
const SoftWarnBytes = 4 * 1024 * 1024

// KV is the synchronous durable slot the store mirrors itself into.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, val []byte) error
}

// SyncStatus reports how the in-memory collection relates to the durable
// slot. After a rejected write the memory stays the truth and Persisted
// flips false until the next successful save.
type SyncStatus struct {
	Persisted   bool      `json:"persisted"`
	LastSavedAt time.Time `json:"lastSavedAt,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	SizeBytes   int       `json:"sizeBytes"`
}

// Store owns the ordered task collection. Every mutation re-serializes the
// whole collection to the durable slot; reads never touch storage.
type Store struct {
	mu     sync.RWMutex
	kv     KV
	log    *zap.SugaredLogger
	tasks  []model.Task
	status SyncStatus
}

// NewStore loads the collection from the durable slot. A missing or
// unreadable slot falls back to seed data and is never fatal.
func NewStore(kv KV, log *zap.SugaredLogger) *Store {
	s := &Store{
		kv:     kv,
		log:    log,
		status: SyncStatus{Persisted: true},
	}

	b, ok, err := kv.Get(StorageKey)
	if err != nil {
		log.Errorw("read tasks slot", "error", err)
		s.tasks = SeedTasks(time.Now())
		return s
	}
	if !ok {
		s.tasks = SeedTasks(time.Now())
		return s
	}

	var loaded []model.Task
	if err := json.Unmarshal(b, &loaded); err != nil {
		log.Errorw("decode tasks slot, falling back to seed data", "error", err)
		s.tasks = SeedTasks(time.Now())
		return s
	}
	s.tasks = loaded
	s.status.SizeBytes = len(b)
	return s
}

func newID() model.TaskID {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return model.TaskID("task_" + hex.EncodeToString(b[:]))
}

// Add assigns a fresh id to the draft and appends it. The only creation-time
// validation is the non-empty title; updates are not re-validated.
func (s *Store) Add(draft model.Task) (model.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return model.Task{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft.ID = newID()
	s.tasks = append(s.tasks, draft)
	s.persistLocked()
	return draft, nil
}

// Update replaces the task with a matching id in place, preserving its
// position. An unknown id is a silent no-op; the return value only says
// whether anything changed.
func (s *Store) Update(t model.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
			s.persistLocked()
			return true
		}
	}
	return false
}

// Delete removes the task with the given id. Idempotent: a second call with
// the same id is a no-op, not an error.
func (s *Store) Delete(id model.TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}

// Get returns the task with the given id.
func (s *Store) Get(id model.TaskID) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, ErrNotFound
}

// Tasks returns the whole collection in insertion order.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// TasksForDate returns, in insertion order, every task whose due date equals
// the given YYYY-MM-DD string exactly. No normalization happens here; dates
// are compared as stored.
func (s *Store) TasksForDate(date string) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Task{}
	for _, t := range s.tasks {
		if t.DueDate == date {
			out = append(out, t)
		}
	}
	return out
}

// Month buckets every task due within the given YYYY-MM month by due date,
// insertion order preserved within each bucket.
func (s *Store) Month(month string) map[string][]model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string][]model.Task{}
	for _, t := range s.tasks {
		if strings.HasPrefix(t.DueDate, month+"-") {
			out[t.DueDate] = append(out[t.DueDate], t)
		}
	}
	return out
}

// Sync reports the current persistence status.
func (s *Store) Sync() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// persistLocked serializes the whole collection into the durable slot. A
// failed write is logged and recorded but never rolled back: memory stays
// the truth until the next reload.
func (s *Store) persistLocked() {
	b, err := json.Marshal(s.tasks)
	if err != nil {
		s.log.Errorw("encode tasks", "error", err)
		s.status.Persisted = false
		s.status.LastError = err.Error()
		return
	}

	s.status.SizeBytes = len(b)
	if len(b) > SoftWarnBytes {
		s.log.Warnw("tasks data is getting large, attachments might not be saved correctly",
			"size_bytes", len(b), "soft_limit", SoftWarnBytes)
	}

	if err := s.kv.Set(StorageKey, b); err != nil {
		s.log.Errorw("save tasks", "error", err)
		s.status.Persisted = false
		s.status.LastError = err.Error()
		return
	}

	s.status.Persisted = true
	s.status.LastError = ""
	s.status.LastSavedAt = time.Now()
}
