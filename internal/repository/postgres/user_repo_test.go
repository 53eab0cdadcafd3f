package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var userCols = []string{"id", "name", "email", "pwd_hash", "salt", "refresh_token", "created_at", "updated_at"}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	now := time.Now()
	u := &model.User{
		ID:        uuid.Must(uuid.NewV4()),
		Name:      "Alice",
		Email:     "alice@example.com",
		PwdHash:   []byte("h"),
		Salt:      []byte("s"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	q := `INSERT INTO users \(id, name, email, pwd_hash, salt, created_at, updated_at\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)`

	mock.ExpectExec(q).
		WithArgs(u.ID, u.Name, u.Email, u.PwdHash, u.Salt, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, u))

	mock.ExpectExec(q).
		WithArgs(u.ID, u.Name, u.Email, u.PwdHash, u.Salt, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, u), errs.ErrAlreadyExists)

	mock.ExpectExec(q).
		WithArgs(u.ID, u.Name, u.Email, u.PwdHash, u.Salt, u.CreatedAt, u.UpdatedAt).
		WillReturnError(errors.New("conn reset"))
	err := r.Create(ctx, u)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	now := time.Now()
	q := regexp.QuoteMeta(`SELECT id, name, email, pwd_hash, salt, COALESCE(refresh_token, ''), created_at, updated_at FROM users WHERE id=$1`)

	mock.ExpectQuery(q).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "Alice", "alice@example.com", []byte("h"), []byte("s"), "rt", now, now))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "rt", u.RefreshToken)

	mock.ExpectQuery(q).WithArgs(id).WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(q).WithArgs(id).WillReturnError(context.Canceled)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	now := time.Now()
	q := regexp.QuoteMeta(`SELECT id, name, email, pwd_hash, salt, COALESCE(refresh_token, ''), created_at, updated_at FROM users WHERE email=$1`)

	mock.ExpectQuery(q).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "Alice", "alice@example.com", []byte("h"), []byte("s"), "", now, now))
	u, err := r.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", u.Name)
	require.Empty(t, u.RefreshToken)

	mock.ExpectQuery(q).WithArgs("bob@example.com").WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByEmail(ctx, "bob@example.com")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_SetRefreshToken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	q := regexp.QuoteMeta(`UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = now() WHERE id = $1`)

	mock.ExpectExec(q).WithArgs(id, "rt").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetRefreshToken(ctx, id, "rt"))

	mock.ExpectExec(q).WithArgs(id, "rt").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetRefreshToken(ctx, id, "rt"), errs.ErrNotFound)
}

func TestUserRepo_SwapRefreshToken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	q := regexp.QuoteMeta(`UPDATE users SET refresh_token = NULLIF($3, ''), updated_at = now() WHERE id = $1 AND refresh_token = $2`)

	mock.ExpectExec(q).WithArgs(id, "old", "new").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SwapRefreshToken(ctx, id, "old", "new"))

	// second writer with the same old value loses
	mock.ExpectExec(q).WithArgs(id, "old", "newer").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SwapRefreshToken(ctx, id, "old", "newer"), errs.ErrVersionConflict)

	mock.ExpectExec(q).WithArgs(id, "old", "x").WillReturnError(errors.New("boom"))
	require.Error(t, r.SwapRefreshToken(ctx, id, "old", "x"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	q := regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)

	mock.ExpectExec(q).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id))

	mock.ExpectExec(q).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, id), errs.ErrNotFound)
}
