package domain

import "time"

// EventType identifies a lifecycle event published by the pipeline
type EventType string

const (
	EventTypeTaskCompleted  EventType = "task.completed"
	EventTypeTaskFailed     EventType = "task.failed"
	EventTypeVideoCompleted EventType = "video.completed"
)

// Event is the payload published to the event broker when an upload
// task or a full video upload reaches a terminal state.
type Event struct {
	Type      EventType `json:"type"`
	TaskID    string    `json:"task_id,omitempty"`
	UserID    string    `json:"user_id"`
	ObjectKey string    `json:"object_key,omitempty"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
