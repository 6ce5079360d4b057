package todos

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const todoColumns = `id, title, description, is_completed, user_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, userID int64, title string, description *string) (*Todo, error) {
	return scanTodo(s.db.QueryRowContext(ctx, `
		INSERT INTO todos (title, description, user_id)
		VALUES ($1, $2, $3)
		RETURNING `+todoColumns, title, description, userID))
}

func (s *PostgresStore) List(ctx context.Context, userID int64) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, userID, id int64) (*Todo, error) {
	return scanTodo(s.db.QueryRowContext(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE id = $1 AND user_id = $2
	`, id, userID))
}

func (s *PostgresStore) Update(ctx context.Context, userID, id int64, p Patch) (*Todo, error) {
	return scanTodo(s.db.QueryRowContext(ctx, `
		UPDATE todos
		SET title = COALESCE($1, title),
			description = COALESCE($2, description),
			is_completed = COALESCE($3, is_completed),
			updated_at = now()
		WHERE id = $4 AND user_id = $5
		RETURNING `+todoColumns, p.Title, p.Description, p.IsCompleted, id, userID))
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(row scanner) (*Todo, error) {
	var (
		t    Todo
		desc sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &desc, &t.IsCompleted, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	return &t, nil
}
