package ports

import (
	"context"
	"time"
)

const (
	TaskPending = "PENDING"
	TaskStarted = "STARTED"
	TaskSuccess = "SUCCESS"
	TaskFailure = "FAILURE"
)

// Port: dispatches named asynchronous jobs to a broker.
// Delivery is at-least-once; consumers must tolerate duplicate execution.
type TaskQueue interface {
	// Enqueue taskName with payload on queue (default queue when empty) and return the task id.
	Send(ctx context.Context, taskName string, payload map[string]string, queue string) (string, error)
}

// Last known state of a dispatched task.
type TaskStatus struct {
	TaskID    string
	Name      string
	State     string
	Result    string
	Error     string
	UpdatedAt time.Time
}

// Result backend for dispatched tasks.
type TaskStatusStore interface {
	SetStatus(ctx context.Context, status TaskStatus) error
	// Reports domain.ErrNotFound for unknown or expired task ids.
	GetStatus(ctx context.Context, taskID string) (TaskStatus, error)
}

// Envelope carried by the broker for every dispatched task.
type TaskMessage struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Queue      string            `json:"queue"`
	Payload    map[string]string `json:"payload"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}
