package repository

import (
	"context"

	"github.com/and161185/noteai/internal/model"
	"github.com/gofrs/uuid/v5"
)

// NoteRepository provides per-user note storage. Every call is scoped by userID.
type NoteRepository interface {
	// Create inserts a note.
	Create(ctx context.Context, n *model.Note) error
	// List returns all notes of a user ordered by creation time.
	List(ctx context.Context, userID uuid.UUID) ([]model.Note, error)
	// Get returns a single note.
	Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error)
	// Update applies patch, appending the replaced values to the note history.
	Update(ctx context.Context, userID, noteID uuid.UUID, patch model.NotePatch) (*model.Note, error)
	// Delete removes a note.
	Delete(ctx context.Context, userID, noteID uuid.UUID) error
}
