// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access/refresh pair.
type Tokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// User represents an account stored on the server. The password is never stored in plaintext.
type User struct {
	ID           uuid.UUID // PK
	Name         string
	Email        string // unique, lower-cased
	PwdHash      []byte // Argon2id(password, Salt)
	Salt         []byte // per-user salt
	RefreshToken string // empty when no session is active
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Revision is a snapshot of a note's previous title/content, taken on update.
type Revision struct {
	Title    string
	Content  string
	EditedAt time.Time
}

// Note is a single user-owned note.
type Note struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
	History   []Revision // oldest first
}

// NotePatch carries optional replacements for an update; nil leaves the field as is.
type NotePatch struct {
	Title   *string
	Content *string
}

// Draft is an AI-produced note proposal.
type Draft struct {
	Title   string
	Content string
}
