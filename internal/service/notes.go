package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/model"
	"github.com/and161185/noteai/internal/repository"
)

const (
	maxTitleLen   = 200
	maxContentLen = 100_000
)

// NoteService defines per-user note operations.
type NoteService interface {
	// Create stores a new note owned by userID.
	Create(ctx context.Context, userID uuid.UUID, title, content string) (*model.Note, error)
	// List returns the user's notes, oldest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Note, error)
	// Get returns a single note of the user.
	Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error)
	// Update replaces title and/or content, recording the previous values in history.
	Update(ctx context.Context, userID, noteID uuid.UUID, patch model.NotePatch) (*model.Note, error)
	// Delete removes a note of the user.
	Delete(ctx context.Context, userID, noteID uuid.UUID) error
}

type NoteServiceImpl struct {
	repo repository.NoteRepository
	now  func() time.Time
}

// NewNoteService constructs NoteService.
func NewNoteService(repo repository.NoteRepository) *NoteServiceImpl {
	return &NoteServiceImpl{repo: repo, now: time.Now}
}

// Create validates input and delegates to the repository.
// Validation rules:
// - title and content are non-empty after trimming
// - title at most 200 characters, content at most 100k
func (s *NoteServiceImpl) Create(ctx context.Context, userID uuid.UUID, title, content string) (*model.Note, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	title = strings.TrimSpace(title)
	if err := validateNote(title, content); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	n := &model.Note{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns all notes of the user.
func (s *NoteServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Note, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	return s.repo.List(ctx, userID)
}

// Get fetches a single note.
func (s *NoteServiceImpl) Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	if userID == uuid.Nil || noteID == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	return s.repo.Get(ctx, userID, noteID)
}

// Update applies a partial edit. At least one field must be present.
func (s *NoteServiceImpl) Update(ctx context.Context, userID, noteID uuid.UUID, patch model.NotePatch) (*model.Note, error) {
	if userID == uuid.Nil || noteID == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	if patch.Title == nil && patch.Content == nil {
		return nil, fmt.Errorf("%w: nothing to update", errs.ErrValidation)
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" || len(t) > maxTitleLen {
			return nil, fmt.Errorf("%w: title must be 1..%d characters", errs.ErrValidation, maxTitleLen)
		}
		patch.Title = &t
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" || len(*patch.Content) > maxContentLen {
			return nil, fmt.Errorf("%w: content must be non-empty and at most %d bytes", errs.ErrValidation, maxContentLen)
		}
	}
	return s.repo.Update(ctx, userID, noteID, patch)
}

// Delete removes a note.
func (s *NoteServiceImpl) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	if userID == uuid.Nil || noteID == uuid.Nil {
		return errs.ErrNotFound
	}
	return s.repo.Delete(ctx, userID, noteID)
}

func validateNote(title, content string) error {
	if title == "" || len(title) > maxTitleLen {
		return fmt.Errorf("%w: title must be 1..%d characters", errs.ErrValidation, maxTitleLen)
	}
	if strings.TrimSpace(content) == "" || len(content) > maxContentLen {
		return fmt.Errorf("%w: content must be non-empty and at most %d bytes", errs.ErrValidation, maxContentLen)
	}
	return nil
}
