package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/noteai/internal/assist"
	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/model"
)

const (
	maxMessageLen = 4000
	// MaxImageBytes bounds the decoded image accepted for transcription.
	MaxImageBytes = 5 << 20
)

// AssistService defines AI-assisted note creation.
type AssistService interface {
	// ChatToNote drafts a note from message and saves it for userID.
	ChatToNote(ctx context.Context, userID uuid.UUID, message string) (*model.Note, error)
	// ImageToDraft transcribes an image into a draft. The draft is not saved.
	ImageToDraft(ctx context.Context, mimeType string, image []byte) (model.Draft, error)
}

type AssistServiceImpl struct {
	gen   assist.Generator
	notes NoteService
	log   *zap.Logger
}

// NewAssistService constructs AssistService. A nil generator makes every call
// return assist.ErrUnavailable.
func NewAssistService(gen assist.Generator, notes NoteService, log *zap.Logger) *AssistServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssistServiceImpl{gen: gen, notes: notes, log: log}
}

// ChatToNote validates the message, asks the generator for a draft and stores it.
func (s *AssistServiceImpl) ChatToNote(ctx context.Context, userID uuid.UUID, message string) (*model.Note, error) {
	message = strings.TrimSpace(message)
	if message == "" || len(message) > maxMessageLen {
		return nil, fmt.Errorf("%w: message must be 1..%d characters", errs.ErrValidation, maxMessageLen)
	}
	if s.gen == nil {
		return nil, assist.ErrUnavailable
	}
	d, err := s.gen.DraftFromMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	n, err := s.notes.Create(ctx, userID, d.Title, d.Content)
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	s.log.Debug("draft saved", zap.String("user_id", userID.String()), zap.String("note_id", n.ID.String()))
	return n, nil
}

// ImageToDraft validates the image and returns the generator's transcription.
func (s *AssistServiceImpl) ImageToDraft(ctx context.Context, mimeType string, image []byte) (model.Draft, error) {
	if len(image) == 0 || len(image) > MaxImageBytes {
		return model.Draft{}, fmt.Errorf("%w: image must be 1..%d bytes", errs.ErrValidation, MaxImageBytes)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return model.Draft{}, fmt.Errorf("%w: unsupported content type %q", errs.ErrValidation, mimeType)
	}
	if s.gen == nil {
		return model.Draft{}, assist.ErrUnavailable
	}
	return s.gen.DraftFromImage(ctx, mimeType, image)
}
