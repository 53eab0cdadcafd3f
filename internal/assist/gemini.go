// Package assist turns free text or a photographed page into a note draft using Gemini.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/and161185/noteai/internal/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

var (
	// ErrUnavailable is returned when no API key was configured.
	ErrUnavailable = errors.New("assistant unavailable")
	// ErrEmptyDraft is returned when the model produced nothing usable.
	ErrEmptyDraft = errors.New("assistant returned an empty draft")
)

// Generator produces note drafts.
type Generator interface {
	// DraftFromMessage writes a note from a chat message.
	DraftFromMessage(ctx context.Context, message string) (model.Draft, error)
	// DraftFromImage transcribes and corrects the text found in an image.
	DraftFromImage(ctx context.Context, mimeType string, image []byte) (model.Draft, error)
}

const (
	messageInstruction = `You turn a user's message into a concise personal note.
Reply with a JSON object {"title": string, "content": string}. The title has at most eight words.`
	imageInstruction = `You read the text in the supplied image, fix spelling and grammar, and keep its meaning.
Reply with a JSON object {"title": string, "content": string}. The title summarizes the text in at most eight words.`
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	models contentGenerator
	model  string
	log    *zap.Logger
}

// NewGemini creates a Gemini API client. modelName falls back to DefaultModel.
func NewGemini(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return newGemini(client.Models, modelName, log), nil
}

func newGemini(models contentGenerator, modelName string, log *zap.Logger) *Gemini {
	if modelName == "" {
		modelName = DefaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{models: models, model: modelName, log: log}
}

// DraftFromMessage asks the model to write a note for message.
func (g *Gemini) DraftFromMessage(ctx context.Context, message string) (model.Draft, error) {
	return g.generate(ctx, messageInstruction, genai.Text(message))
}

// DraftFromImage asks the model to transcribe image.
func (g *Gemini) DraftFromImage(ctx context.Context, mimeType string, image []byte) (model.Draft, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText("Transcribe this page."),
	}
	return g.generate(ctx, imageInstruction, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)})
}

func (g *Gemini) generate(ctx context.Context, instruction string, contents []*genai.Content) (model.Draft, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.4),
	}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return model.Draft{}, fmt.Errorf("generate content: %w", err)
	}
	d, err := ParseDraft(resp.Text())
	if err != nil {
		g.log.Warn("unusable model reply", zap.String("model", g.model), zap.Error(err))
		return model.Draft{}, err
	}
	return d, nil
}

// ParseDraft extracts a draft from a model reply. JSON replies are preferred; plain text
// falls back to first line as title and the rest as content.
func ParseDraft(reply string) (model.Draft, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return model.Draft{}, ErrEmptyDraft
	}

	var d struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(reply), &d); err == nil {
		out := model.Draft{Title: strings.TrimSpace(d.Title), Content: strings.TrimSpace(d.Content)}
		if out.Content == "" {
			return model.Draft{}, ErrEmptyDraft
		}
		if out.Title == "" {
			out.Title = "Untitled"
		}
		return out, nil
	}

	title, content, found := strings.Cut(reply, "\n")
	title = strings.TrimSpace(strings.TrimLeft(title, "# "))
	content = strings.TrimSpace(content)
	if !found || content == "" {
		return model.Draft{Title: "Untitled", Content: reply}, nil
	}
	return model.Draft{Title: title, Content: content}, nil
}
