package todo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("todo not found")

// Todo is a task owned by exactly one user. OwnerID is fixed at creation.
type Todo struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// ListFilter narrows the operator listing. Zero value lists everything.
type ListFilter struct {
	Completed    *bool
	CreatedSince *time.Time
	Search       string
}

// ListRow is a todo joined with its owner's username.
type ListRow struct {
	Todo
	OwnerUsername string
}

type Repository interface {
	CreateTodo(ctx context.Context, t Todo) error
	// GetTodoByID loads a todo regardless of its owner.
	GetTodoByID(ctx context.Context, id uuid.UUID) (Todo, error)
	ListTodosByOwner(ctx context.Context, ownerID uuid.UUID) ([]Todo, error)
	// UpdateTodo rewrites title, description and completed. The owner and
	// creation time are never touched.
	UpdateTodo(ctx context.Context, t Todo) error
	DeleteTodo(ctx context.Context, id uuid.UUID) error
	ListTodos(ctx context.Context, f ListFilter) ([]ListRow, error)
}
