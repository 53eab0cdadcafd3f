// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/noteai/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository is the credential store: user records plus the single stored refresh token.
type UserRepository interface {
	// Create inserts a new user; returns errs.ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by (lower-cased) email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// SetRefreshToken unconditionally replaces the stored refresh token (login).
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// SwapRefreshToken replaces the stored refresh token only if it currently equals old.
	// It returns errs.ErrVersionConflict when the stored value differs.
	SwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error
	// Delete removes the user together with their notes.
	Delete(ctx context.Context, id uuid.UUID) error
}
