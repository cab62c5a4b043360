package model

import (
	"fmt"
	"strings"
	"time"
)

type TaskID string

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Task is the canonical task record. ID is assigned by the store at creation
// and never changes; everything else is replaced wholesale on update.
type Task struct {
	ID          TaskID       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     string       `json:"dueDate"`           // YYYY-MM-DD
	DueTime     string       `json:"dueTime,omitempty"` // HH:mm, empty = all-day
	Priority    Priority     `json:"priority"`
	Status      Status       `json:"status"`
	Reminder    int          `json:"reminderMinutes,omitempty"` // minutes before due instant, <=0 = none
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file embedded inline in its owning task. It has no
// existence of its own; deleting the task deletes it.
type Attachment struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"` // MIME type, advisory only
	DataURL string `json:"dataUrl"`
}

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// HasReminder reports whether the task can ever fire a reminder: it needs a
// clock time and a positive offset.
func (t Task) HasReminder() bool {
	return t.DueTime != "" && t.Reminder > 0
}

// DueInstant combines DueDate and DueTime into a wall-clock instant in loc.
// Tasks without a due time have no instant.
func (t Task) DueInstant(loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(t.DueDate) == "" {
		return time.Time{}, fmt.Errorf("task %s: missing due date", t.ID)
	}
	if strings.TrimSpace(t.DueTime) == "" {
		return time.Time{}, fmt.Errorf("task %s: no due time", t.ID)
	}
	due, err := time.ParseInLocation("2006-01-02T15:04", t.DueDate+"T"+t.DueTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("task %s: bad due date/time: %w", t.ID, err)
	}
	return due, nil
}

// IsImage reports whether the attachment should render as an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.Type, "image/")
}
