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
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var noteCols = []string{"id", "user_id", "title", "content", "created_at", "updated_at"}

const (
	noteGetSQL     = `SELECT id, user_id, title, content, created_at, updated_at FROM notes WHERE user_id=$1 AND id=$2`
	noteHistorySQL = `SELECT title, content, edited_at FROM note_revisions WHERE note_id=$1 ORDER BY id ASC`
)

func TestNoteRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	now := time.Now()
	n := &model.Note{
		ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()),
		Title: "t", Content: "c", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO notes \(id, user_id, title, content, created_at, updated_at\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs(n.ID, n.UserID, "t", "c", now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(context.Background(), n))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_List_AttachesHistory(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, title, content, created_at, updated_at FROM notes WHERE user_id=$1 ORDER BY created_at ASC`)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(noteCols).
			AddRow(a, userID, "a", "ca", now, now).
			AddRow(b, userID, "b", "cb", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT r.note_id, r.title, r.content, r.edited_at FROM note_revisions r JOIN notes n ON n.id = r.note_id WHERE n.user_id=$1 ORDER BY r.id ASC`)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"note_id", "title", "content", "edited_at"}).
			AddRow(b, "b0", "cb0", now))

	notes, err := r.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Empty(t, notes[0].History)
	require.Len(t, notes[1].History, 1)
	require.Equal(t, "b0", notes[1].History[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_List_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT id, user_id, title, content, created_at, updated_at FROM notes WHERE user_id=\$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(noteCols))

	notes, err := r.List(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, notes)
	require.Empty(t, notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	ctx := context.Background()
	userID, noteID := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(noteGetSQL)).
		WithArgs(userID, noteID).
		WillReturnRows(pgxmock.NewRows(noteCols).AddRow(noteID, userID, "t", "c", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(noteHistorySQL)).
		WithArgs(noteID).
		WillReturnRows(pgxmock.NewRows([]string{"title", "content", "edited_at"}).
			AddRow("t0", "c0", now).AddRow("t1", "c1", now))

	n, err := r.Get(ctx, userID, noteID)
	require.NoError(t, err)
	require.Equal(t, "t", n.Title)
	require.Len(t, n.History, 2)
	require.Equal(t, "t0", n.History[0].Title)

	mock.ExpectQuery(regexp.QuoteMeta(noteGetSQL)).
		WithArgs(userID, noteID).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, userID, noteID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestNoteRepo_Update_SnapshotsPrevious(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	ctx := context.Background()
	userID, noteID := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()
	title := "new title"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT title, content FROM notes WHERE id=$1 AND user_id=$2 FOR UPDATE`)).
		WithArgs(noteID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"title", "content"}).AddRow("old title", "body"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO note_revisions (note_id, title, content, edited_at) VALUES ($1,$2,$3,$4)`)).
		WithArgs(noteID, "old title", "body", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notes SET title=$3, content=$4, updated_at=$5 WHERE id=$1 AND user_id=$2`)).
		WithArgs(noteID, userID, title, "body", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(noteGetSQL)).
		WithArgs(userID, noteID).
		WillReturnRows(pgxmock.NewRows(noteCols).AddRow(noteID, userID, title, "body", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(noteHistorySQL)).
		WithArgs(noteID).
		WillReturnRows(pgxmock.NewRows([]string{"title", "content", "edited_at"}).AddRow("old title", "body", now))

	n, err := r.Update(ctx, userID, noteID, model.NotePatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, n.Title)
	require.Equal(t, "body", n.Content)
	require.Len(t, n.History, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_Update_NotFoundRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	userID, noteID := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT title, content FROM notes WHERE id=\$1 AND user_id=\$2 FOR UPDATE`).
		WithArgs(noteID, userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.Update(context.Background(), userID, noteID, model.NotePatch{})
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_Update_ExecErrorRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	userID, noteID := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT title, content FROM notes WHERE id=\$1 AND user_id=\$2 FOR UPDATE`).
		WithArgs(noteID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"title", "content"}).AddRow("t", "c"))
	mock.ExpectExec(`INSERT INTO note_revisions`).
		WithArgs(noteID, "t", "c", pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := r.Update(context.Background(), userID, noteID, model.NotePatch{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNoteRepo(db)
	ctx := context.Background()
	userID, noteID := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	q := regexp.QuoteMeta(`DELETE FROM notes WHERE id=$1 AND user_id=$2`)

	mock.ExpectExec(q).WithArgs(noteID, userID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, userID, noteID))

	mock.ExpectExec(q).WithArgs(noteID, userID).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, userID, noteID), errs.ErrNotFound)
}
