package httpserver

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/model"
)

// memStore implements both repositories in memory.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
	notes map[uuid.UUID][]model.Note

	getErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]*model.User{}, notes: map[uuid.UUID][]model.Note{}}
}

func (m *memStore) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memStore) SetRefreshToken(_ context.Context, id uuid.UUID, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.RefreshToken = tok
	return nil
}

func (m *memStore) SwapRefreshToken(_ context.Context, id uuid.UUID, old, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || old == "" || u.RefreshToken != old {
		return errs.ErrVersionConflict
	}
	u.RefreshToken = next
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.users, id)
	delete(m.notes, id)
	return nil
}

type memNotes struct{ s *memStore }

func (n memNotes) Create(_ context.Context, note *model.Note) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	n.s.notes[note.UserID] = append(n.s.notes[note.UserID], *note)
	return nil
}

func (n memNotes) List(_ context.Context, userID uuid.UUID) ([]model.Note, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	return append([]model.Note{}, n.s.notes[userID]...), nil
}

func (n memNotes) Get(_ context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	for _, x := range n.s.notes[userID] {
		if x.ID == noteID {
			return &x, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (n memNotes) Update(_ context.Context, userID, noteID uuid.UUID, p model.NotePatch) (*model.Note, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	list := n.s.notes[userID]
	for i := range list {
		if list[i].ID != noteID {
			continue
		}
		x := &list[i]
		x.History = append(x.History, model.Revision{Title: x.Title, Content: x.Content, EditedAt: time.Now()})
		if p.Title != nil {
			x.Title = *p.Title
		}
		if p.Content != nil {
			x.Content = *p.Content
		}
		c := *x
		return &c, nil
	}
	return nil, errs.ErrNotFound
}

func (n memNotes) Delete(_ context.Context, userID, noteID uuid.UUID) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	list := n.s.notes[userID]
	for i := range list {
		if list[i].ID == noteID {
			n.s.notes[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeGen struct{ draft model.Draft }

func (g fakeGen) DraftFromMessage(context.Context, string) (model.Draft, error) { return g.draft, nil }
func (g fakeGen) DraftFromImage(context.Context, string, []byte) (model.Draft, error) {
	return g.draft, nil
}
