// Package convert maps domain entities to the JSON wire types of the REST API and back.
package convert

import (
	"fmt"
	"strings"
	"time"

	model "github.com/and161185/noteai/internal/model"
	u "github.com/gofrs/uuid/v5"
)

// --- users ---

// User is the public view of an account. It never carries the password hash or tokens.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToUser converts a domain user to its public view.
func ToUser(in *model.User) User {
	if in == nil {
		return User{}
	}
	return User{ID: in.ID.String(), Name: in.Name, Email: in.Email, CreatedAt: in.CreatedAt}
}

// RegisterRequest is the body of POST /api/users/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the optional body of POST /api/users/refresh for non-cookie clients.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Session is returned by login and refresh.
type Session struct {
	User         *User     `json:"user,omitempty"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ToSession builds the login/refresh response. user may be nil.
func ToSession(t model.Tokens, user *model.User) Session {
	s := Session{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, ExpiresAt: t.AccessExpiresAt}
	if user != nil {
		pub := ToUser(user)
		s.User = &pub
	}
	return s
}

// --- notes ---

// Revision is a prior version of a note.
type Revision struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	EditedAt time.Time `json:"editedAt"`
}

// Note is the wire form of a note.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	History   []Revision `json:"history"`
}

// ToNote converts a domain note.
func ToNote(in *model.Note) Note {
	out := Note{
		ID:        in.ID.String(),
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
		History:   make([]Revision, 0, len(in.History)),
	}
	for _, r := range in.History {
		out.History = append(out.History, Revision(r))
	}
	return out
}

// ToNotes converts a list; the result is never nil so it encodes as [].
func ToNotes(in []model.Note) []Note {
	out := make([]Note, 0, len(in))
	for i := range in {
		out = append(out, ToNote(&in[i]))
	}
	return out
}

// NoteRequest is the body of note create (both fields required) and update (either field).
type NoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Patch converts the request into a domain patch.
func (r NoteRequest) Patch() model.NotePatch {
	return model.NotePatch{Title: r.Title, Content: r.Content}
}

// ParseNoteID parses a path note identifier.
func ParseNoteID(s string) (u.UUID, error) {
	id, err := u.FromString(strings.TrimSpace(s))
	if err != nil {
		return u.Nil, fmt.Errorf("bad note id %q: %w", s, err)
	}
	return id, nil
}

// --- assistant ---

// ChatRequest is the body of POST /api/chat-bot.
type ChatRequest struct {
	Message string `json:"message"`
}

// ImageRequest is the body of POST /api/image-upload. Image is base64, optionally as a data URL.
type ImageRequest struct {
	Image string `json:"image"`
}

// ImageDraft is the transcription result.
type ImageDraft struct {
	Title            string `json:"title"`
	CorrectedContent string `json:"correctedContent"`
}

// ToImageDraft converts a domain draft.
func ToImageDraft(d model.Draft) ImageDraft {
	return ImageDraft{Title: d.Title, CorrectedContent: d.Content}
}

// --- errors ---

// Error is the body of every non-2xx response.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}
