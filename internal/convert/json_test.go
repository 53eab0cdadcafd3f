package convert

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	model "github.com/and161185/noteai/internal/model"
	u "github.com/gofrs/uuid/v5"
)

func TestToUser_HidesSecrets(t *testing.T) {
	t.Parallel()

	in := &model.User{
		ID:           u.Must(u.NewV4()),
		Name:         "Alice",
		Email:        "alice@example.com",
		PwdHash:      []byte("hash"),
		Salt:         []byte("salt"),
		RefreshToken: "rt-secret",
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := json.Marshal(ToUser(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, leak := range []string{"hash", "salt", "rt-secret", "pwd", "password", "refresh"} {
		if strings.Contains(strings.ToLower(s), leak) {
			t.Fatalf("user JSON leaks %q: %s", leak, s)
		}
	}
	if !strings.Contains(s, `"email":"alice@example.com"`) {
		t.Fatalf("email missing: %s", s)
	}
	if (ToUser(nil) != User{}) {
		t.Fatalf("nil user must give zero view")
	}
}

func TestToSession(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Minute)
	tok := model.Tokens{AccessToken: "a", AccessExpiresAt: exp, RefreshToken: "r", RefreshExpiresAt: exp.Add(time.Hour)}

	s := ToSession(tok, nil)
	if s.User != nil || s.AccessToken != "a" || s.RefreshToken != "r" || !s.ExpiresAt.Equal(exp) {
		t.Fatalf("bad session: %+v", s)
	}
	b, _ := json.Marshal(s)
	if strings.Contains(string(b), `"user"`) {
		t.Fatalf("nil user must be omitted: %s", b)
	}

	usr := &model.User{ID: u.Must(u.NewV4()), Email: "x@y.z"}
	s = ToSession(tok, usr)
	if s.User == nil || s.User.ID != usr.ID.String() {
		t.Fatalf("user not attached")
	}
}

func TestToNote_History(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := model.Note{
		ID:      u.Must(u.NewV4()),
		Title:   "new",
		Content: "body",
		History: []model.Revision{{Title: "old", Content: "was", EditedAt: at}},
	}
	out := ToNote(&n)
	if out.ID != n.ID.String() || out.Title != "new" {
		t.Fatalf("bad note: %+v", out)
	}
	if len(out.History) != 1 || out.History[0].Title != "old" || !out.History[0].EditedAt.Equal(at) {
		t.Fatalf("bad history: %+v", out.History)
	}

	b, _ := json.Marshal(ToNote(&model.Note{ID: n.ID}))
	if !strings.Contains(string(b), `"history":[]`) {
		t.Fatalf("empty history must encode as []: %s", b)
	}
	b, _ = json.Marshal(ToNotes(nil))
	if string(b) != "[]" {
		t.Fatalf("empty list must encode as []: %s", b)
	}
}

func TestNoteRequest_Patch(t *testing.T) {
	t.Parallel()

	var r NoteRequest
	if err := json.Unmarshal([]byte(`{"title":"t"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := r.Patch()
	if p.Title == nil || *p.Title != "t" || p.Content != nil {
		t.Fatalf("bad patch: %+v", p)
	}
}

func TestParseNoteID(t *testing.T) {
	t.Parallel()

	id := u.Must(u.NewV4())
	got, err := ParseNoteID(" " + id.String())
	if err != nil || got != id {
		t.Fatalf("ParseNoteID: %v %v", got, err)
	}
	if _, err := ParseNoteID("nope"); err == nil {
		t.Fatalf("want error on malformed id")
	}
}

func TestToImageDraft(t *testing.T) {
	t.Parallel()

	b, _ := json.Marshal(ToImageDraft(model.Draft{Title: "T", Content: "C"}))
	if string(b) != `{"title":"T","correctedContent":"C"}` {
		t.Fatalf("bad draft JSON: %s", b)
	}
}
