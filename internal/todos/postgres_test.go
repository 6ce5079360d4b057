package todos

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "title", "description", "is_completed", "user_id", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return NewPostgresStore(conn), mock
}

func TestPostgresCreate(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	desc := "milk"

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO todos (title, description, user_id)")).
		WithArgs("Buy groceries", "milk", int64(9)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(5), "Buy groceries", "milk", false, int64(9), now, now))

	got, err := s.Create(context.Background(), 9, "Buy groceries", &desc)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
	require.NotNil(t, got.Description)
	assert.Equal(t, "milk", *got.Description)
}

func TestPostgresListNullDescription(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM todos")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "a", nil, false, int64(9), now, now).
			AddRow(int64(2), "b", "x", true, int64(9), now, now))

	got, err := s.List(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Description)
	assert.True(t, got[1].IsCompleted)
}

func TestPostgresListEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM todos")).WillReturnRows(sqlmock.NewRows(cols))

	got, err := s.List(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresUpdateNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	title := "New"

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE todos")).
		WithArgs("New", nil, nil, int64(3), int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Update(context.Background(), 9, 3, Patch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresDelete(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM todos")).
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM todos")).
		WithArgs(int64(4), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), 9, 3))
	assert.ErrorIs(t, s.Delete(context.Background(), 9, 4), ErrNotFound)
}
