package assist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/and161185/noteai/internal/model"
)

type fakeModels struct {
	reply string
	err   error

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, m string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel, f.gotContents, f.gotConfig = m, contents, cfg
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(f.reply, genai.RoleModel),
		}},
	}, nil
}

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  model.Draft
		err   error
	}{
		{name: "json", reply: `{"title":"Groceries","content":"milk, eggs"}`, want: model.Draft{Title: "Groceries", Content: "milk, eggs"}},
		{name: "fenced json", reply: "```json\n{\"title\":\"T\",\"content\":\"C\"}\n```", want: model.Draft{Title: "T", Content: "C"}},
		{name: "json without title", reply: `{"content":"body"}`, want: model.Draft{Title: "Untitled", Content: "body"}},
		{name: "json without content", reply: `{"title":"x"}`, err: ErrEmptyDraft},
		{name: "plain text", reply: "# Meeting\nDiscuss roadmap", want: model.Draft{Title: "Meeting", Content: "Discuss roadmap"}},
		{name: "single line", reply: "just a thought", want: model.Draft{Title: "Untitled", Content: "just a thought"}},
		{name: "empty", reply: "  ", err: ErrEmptyDraft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDraft(tt.reply)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGemini_DraftFromMessage(t *testing.T) {
	fm := &fakeModels{reply: `{"title":"Call mom","content":"Sunday evening"}`}
	g := newGemini(fm, "", zaptest.NewLogger(t))

	d, err := g.DraftFromMessage(context.Background(), "remind me to call mom on sunday")
	require.NoError(t, err)
	require.Equal(t, "Call mom", d.Title)
	require.Equal(t, DefaultModel, fm.gotModel)
	require.Equal(t, "application/json", fm.gotConfig.ResponseMIMEType)
	require.Len(t, fm.gotContents, 1)
}

func TestGemini_DraftFromImage(t *testing.T) {
	fm := &fakeModels{reply: `{"title":"Lecture","content":"Entropy always grows."}`}
	g := newGemini(fm, "gemini-test", nil)

	d, err := g.DraftFromImage(context.Background(), "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.Equal(t, "Entropy always grows.", d.Content)
	require.Equal(t, "gemini-test", fm.gotModel)
	require.Len(t, fm.gotContents[0].Parts, 2)
	require.NotNil(t, fm.gotContents[0].Parts[0].InlineData)
	require.Equal(t, "image/png", fm.gotContents[0].Parts[0].InlineData.MIMEType)
}

func TestGemini_Errors(t *testing.T) {
	fm := &fakeModels{err: errors.New("quota")}
	g := newGemini(fm, "", nil)
	_, err := g.DraftFromMessage(context.Background(), "x")
	require.Error(t, err)

	fm.err, fm.reply = nil, ""
	_, err = g.DraftFromMessage(context.Background(), "x")
	require.ErrorIs(t, err, ErrEmptyDraft)

	_, err = NewGemini(context.Background(), "", "", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}
