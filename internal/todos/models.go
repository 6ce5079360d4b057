package todos

import (
	"context"
	"errors"
	"time"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

var ErrNotFound = errors.New("todo not found")

type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Patch holds the fields of an update; nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	IsCompleted *bool
}

type Store interface {
	Create(ctx context.Context, userID int64, title string, description *string) (*Todo, error)
	List(ctx context.Context, userID int64) ([]Todo, error)
	Get(ctx context.Context, userID, id int64) (*Todo, error)
	Update(ctx context.Context, userID, id int64, p Patch) (*Todo, error)
	Delete(ctx context.Context, userID, id int64) error
}
