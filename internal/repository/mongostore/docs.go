package mongostore

import (
	"fmt"
	"time"

	"github.com/and161185/noteai/internal/model"
	"github.com/gofrs/uuid/v5"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PwdHash      []byte    `bson:"pwdHash"`
	Salt         []byte    `bson:"salt"`
	RefreshToken string    `bson:"refreshToken"`
	Notes        []noteDoc `bson:"notes"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

type noteDoc struct {
	ID        string        `bson:"_id"`
	Title     string        `bson:"title"`
	Content   string        `bson:"content"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
	History   []revisionDoc `bson:"history"`
}

type revisionDoc struct {
	Title    string    `bson:"title"`
	Content  string    `bson:"content"`
	EditedAt time.Time `bson:"editedAt"`
}

func fromUser(u *model.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PwdHash:      u.PwdHash,
		Salt:         u.Salt,
		RefreshToken: u.RefreshToken,
		Notes:        []noteDoc{},
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d userDoc) toModel() (*model.User, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user %q: bad id: %w", d.ID, err)
	}
	return &model.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PwdHash:      d.PwdHash,
		Salt:         d.Salt,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func fromNote(n *model.Note) noteDoc {
	return noteDoc{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt.UTC(),
		UpdatedAt: n.UpdatedAt.UTC(),
		History:   []revisionDoc{},
	}
}

func (d noteDoc) toModel(userID uuid.UUID) (model.Note, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return model.Note{}, fmt.Errorf("note %q: bad id: %w", d.ID, err)
	}
	n := model.Note{
		ID:        id,
		UserID:    userID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, r := range d.History {
		n.History = append(n.History, model.Revision{Title: r.Title, Content: r.Content, EditedAt: r.EditedAt})
	}
	return n, nil
}
