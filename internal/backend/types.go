package backend

import "fmt"

// Task is owned by the Phase II backend. The id and timestamps are only ever
// echoed back.
type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"is_completed"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type CreateTaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateTaskInput only serialises the fields that were supplied.
type UpdateTaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// StatusUnreachable marks a call that never got an HTTP response.
const StatusUnreachable = 0

// Error is the normalized outcome of a failed backend call.
type Error struct {
	Status  int
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend status %d: %s (%s)", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}
