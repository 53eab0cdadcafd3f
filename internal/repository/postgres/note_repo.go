package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// NoteRepo implements NoteRepository using PostgreSQL.
type NoteRepo struct{ db *DB }

// NewNoteRepo constructs a note repository.
func NewNoteRepo(db *DB) *NoteRepo { return &NoteRepo{db: db} }

// Create inserts a note row.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	const q = `
INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, n.ID, n.UserID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
	return err
}

// List returns all notes of userID with their history, oldest note first.
func (r *NoteRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Note, error) {
	const q = `
SELECT id, user_id, title, content, created_at, updated_at
FROM notes
WHERE user_id=$1
ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Note{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var n model.Note
		if err = rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		index[n.ID] = len(out)
		out = append(out, n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	const hq = `
SELECT r.note_id, r.title, r.content, r.edited_at
FROM note_revisions r
JOIN notes n ON n.id = r.note_id
WHERE n.user_id=$1
ORDER BY r.id ASC`
	hrows, err := r.db.Pool.Query(ctx, hq, userID)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			noteID uuid.UUID
			rev    model.Revision
		)
		if err = hrows.Scan(&noteID, &rev.Title, &rev.Content, &rev.EditedAt); err != nil {
			return nil, err
		}
		if i, ok := index[noteID]; ok {
			out[i].History = append(out[i].History, rev)
		}
	}
	return out, hrows.Err()
}

// Get returns a single note with its history.
func (r *NoteRepo) Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	const q = `
SELECT id, user_id, title, content, created_at, updated_at
FROM notes WHERE user_id=$1 AND id=$2`
	var n model.Note
	err := r.db.Pool.QueryRow(ctx, q, userID, noteID).
		Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	const hq = `
SELECT title, content, edited_at
FROM note_revisions WHERE note_id=$1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, hq, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rev model.Revision
		if err = rows.Scan(&rev.Title, &rev.Content, &rev.EditedAt); err != nil {
			return nil, err
		}
		n.History = append(n.History, rev)
	}
	return &n, rows.Err()
}

// Update locks the note, snapshots its current title/content into note_revisions
// and applies patch, all in one transaction.
func (r *NoteRepo) Update(ctx context.Context, userID, noteID uuid.UUID, patch model.NotePatch) (*model.Note, error) {
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		const sel = `SELECT title, content FROM notes WHERE id=$1 AND user_id=$2 FOR UPDATE`
		const rev = `INSERT INTO note_revisions (note_id, title, content, edited_at) VALUES ($1,$2,$3,$4)`
		const upd = `UPDATE notes SET title=$3, content=$4, updated_at=$5 WHERE id=$1 AND user_id=$2`

		var title, content string
		if err := tx.QueryRow(ctx, sel, noteID, userID).Scan(&title, &content); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, rev, noteID, title, content, now); err != nil {
			return err
		}
		if patch.Title != nil {
			title = *patch.Title
		}
		if patch.Content != nil {
			content = *patch.Content
		}
		_, err := tx.Exec(ctx, upd, noteID, userID, title, content, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, noteID)
}

// Delete removes a note; its revisions cascade.
func (r *NoteRepo) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	const q = `DELETE FROM notes WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, noteID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
