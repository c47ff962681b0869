package todo

import (
	"context"
	"errors"
	"strings"
	"time"

	"todolist/internal/domain/todo"
	"todolist/internal/form"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("todo not found")
	ErrForbidden = errors.New("forbidden")
	ErrInternal  = errors.New("internal error")
)

type Service struct {
	todos  todo.Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(todos todo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{todos: todos, logger: logger, now: time.Now}
}

// List returns the actor's todos in creation order.
func (s *Service) List(ctx context.Context, actor uuid.UUID) ([]todo.Todo, error) {
	items, err := s.todos.ListTodosByOwner(ctx, actor)
	if err != nil {
		s.logger.Error("list todos failed", zap.String("user_id", actor.String()), zap.Error(err))
		return nil, ErrInternal
	}
	return items, nil
}

// Get loads a todo by id and only then checks who owns it, so a missing
// record is reported before a foreign one.
func (s *Service) Get(ctx context.Context, actor, id uuid.UUID) (todo.Todo, error) {
	t, err := s.todos.GetTodoByID(ctx, id)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			return todo.Todo{}, ErrNotFound
		}
		s.logger.Error("get todo failed", zap.String("todo_id", id.String()), zap.Error(err))
		return todo.Todo{}, ErrInternal
	}
	if t.OwnerID != actor {
		return todo.Todo{}, ErrForbidden
	}
	return t, nil
}

// Create stores a new todo owned by actor.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, f form.TodoForm) (todo.Todo, error) {
	if errs := f.Validate(); errs.Any() {
		return todo.Todo{}, form.NewValidationError(errs)
	}

	t := todo.Todo{
		ID:          uuid.New(),
		OwnerID:     actor,
		Title:       f.Title,
		Description: f.Description,
		Completed:   f.Completed,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.todos.CreateTodo(ctx, t); err != nil {
		s.logger.Error("create todo failed", zap.String("user_id", actor.String()), zap.Error(err))
		return todo.Todo{}, ErrInternal
	}
	return t, nil
}

// Update rewrites the editable fields of an owned todo. A todo that fails
// the ownership check is returned untouched alongside the error.
func (s *Service) Update(ctx context.Context, actor, id uuid.UUID, f form.TodoForm) (todo.Todo, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return todo.Todo{}, err
	}
	if errs := f.Validate(); errs.Any() {
		return t, form.NewValidationError(errs)
	}

	t.Title = f.Title
	t.Description = f.Description
	t.Completed = f.Completed
	if err := s.todos.UpdateTodo(ctx, t); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			return todo.Todo{}, ErrNotFound
		}
		s.logger.Error("update todo failed", zap.String("todo_id", id.String()), zap.Error(err))
		return todo.Todo{}, ErrInternal
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.todos.DeleteTodo(ctx, id); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("delete todo failed", zap.String("todo_id", id.String()), zap.Error(err))
		return ErrInternal
	}
	return nil
}

// AdminQuery is the raw operator listing query.
type AdminQuery struct {
	Completed string
	Created   string
	Search    string
}

// ListAll is the operator view over every user's todos. Callers must have
// checked the staff flag.
func (s *Service) ListAll(ctx context.Context, q AdminQuery) ([]todo.ListRow, error) {
	f := todo.ListFilter{Search: strings.TrimSpace(q.Search)}
	switch strings.ToLower(q.Completed) {
	case "yes", "true", "1":
		v := true
		f.Completed = &v
	case "no", "false", "0":
		v := false
		f.Completed = &v
	}
	f.CreatedSince = CreatedSince(q.Created, s.now())

	rows, err := s.todos.ListTodos(ctx, f)
	if err != nil {
		s.logger.Error("list all todos failed", zap.Error(err))
		return nil, ErrInternal
	}
	return rows, nil
}

// CreatedSince maps a period name (today, week, month, year) to its lower
// bound relative to now. Unknown names mean no bound.
func CreatedSince(period string, now time.Time) *time.Time {
	y, m, d := now.Date()
	loc := now.Location()

	var since time.Time
	switch strings.ToLower(period) {
	case "today":
		since = time.Date(y, m, d, 0, 0, 0, 0, loc)
	case "week":
		since = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -7)
	case "month":
		since = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case "year":
		since = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return nil
	}
	return &since
}
