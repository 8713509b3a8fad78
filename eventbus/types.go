package eventbus

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TypeRunStarted    = "run.started"
	TypeTaskStarted   = "task.started"
	TypeTaskCompleted = "task.completed"
	TypeTaskNoReply   = "task.no_reply"
	TypeTaskAborted   = "task.aborted"
	TypeRunFinished   = "run.finished"
)

// Event is the envelope published for every run and task transition.
type Event struct {
	EventID   string         `json:"event_id"`
	Source    string         `json:"source"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Task      *TaskRef       `json:"task,omitempty"`
	Message   string         `json:"message,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// TaskRef identifies a queue entry by position.
type TaskRef struct {
	Index int    `json:"index"`
	Link  string `json:"link"`
	Title string `json:"title,omitempty"`
}

// NewEventID generates a compact unique event id with a date prefix.
func NewEventID(prefix string, t time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + t.UTC().Format("20060102") + "_" + id[:16]
}

// MinimalValidate checks required fields.
func (e *Event) MinimalValidate() bool {
	return e.EventID != "" && e.Source != "" && e.Type != "" && !e.Timestamp.IsZero()
}
