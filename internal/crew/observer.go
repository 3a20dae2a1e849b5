// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crew

import (
	"context"
	"time"
)

// EventType names a run or task lifecycle transition.
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventRunCompleted  EventType = "run_completed"
	EventRunFailed     EventType = "run_failed"
	EventTaskStarted   EventType = "task_started"
	EventTaskCompleted EventType = "task_completed"
	EventTaskFailed    EventType = "task_failed"
)

// Event is one lifecycle notification.
type Event struct {
	Type   EventType         `json:"type"`
	RunID  string            `json:"run_id"`
	TaskID string            `json:"task_id,omitempty"`
	Agent  string            `json:"agent,omitempty"`
	Inputs map[string]string `json:"inputs,omitempty"`
	Output string            `json:"output,omitempty"`
	Error  string            `json:"error,omitempty"`
	Time   time.Time         `json:"time"`
}

// Observer receives lifecycle events. Notify must not block the run for
// long and cannot fail it.
type Observer interface {
	Notify(ctx context.Context, ev Event)
}
