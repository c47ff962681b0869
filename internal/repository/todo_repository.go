package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todolist/internal/database"
	"todolist/internal/domain/todo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresTodoRepository struct {
	db database.DB
}

func NewPostgresTodoRepository(db database.DB) *PostgresTodoRepository {
	return &PostgresTodoRepository{db: db}
}

func (r *PostgresTodoRepository) CreateTodo(ctx context.Context, t todo.Todo) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO todos (id, user_id, title, description, completed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.OwnerID, t.Title, t.Description, t.Completed, t.CreatedAt,
	)
	return err
}

func (r *PostgresTodoRepository) GetTodoByID(ctx context.Context, id uuid.UUID) (todo.Todo, error) {
	var t todo.Todo
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, title, description, completed, created_at
		 FROM todos WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.Todo{}, todo.ErrNotFound
		}
		return todo.Todo{}, err
	}
	return t, nil
}

func (r *PostgresTodoRepository) ListTodosByOwner(ctx context.Context, ownerID uuid.UUID) ([]todo.Todo, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, title, description, completed, created_at
		 FROM todos
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]todo.Todo, 0)
	for rows.Next() {
		var t todo.Todo
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresTodoRepository) UpdateTodo(ctx context.Context, t todo.Todo) error {
	n, err := r.db.Exec(ctx,
		`UPDATE todos SET title = $2, description = $3, completed = $4 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Completed,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return todo.ErrNotFound
	}
	return nil
}

func (r *PostgresTodoRepository) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return todo.ErrNotFound
	}
	return nil
}

func (r *PostgresTodoRepository) ListTodos(ctx context.Context, f todo.ListFilter) ([]todo.ListRow, error) {
	var (
		where []string
		args  []any
	)
	if f.Completed != nil {
		args = append(args, *f.Completed)
		where = append(where, fmt.Sprintf("t.completed = $%d", len(args)))
	}
	if f.CreatedSince != nil {
		args = append(args, *f.CreatedSince)
		where = append(where, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT t.id, t.user_id, t.title, t.description, t.completed, t.created_at, u.username
		 FROM todos t
		 JOIN users u ON u.id = t.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.created_at DESC, t.id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]todo.ListRow, 0)
	for rows.Next() {
		var row todo.ListRow
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.Title, &row.Description, &row.Completed, &row.CreatedAt, &row.OwnerUsername); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
