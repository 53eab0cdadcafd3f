package httpserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/and161185/noteai/internal/convert"
	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/service"
)

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	uid, err := mustUserID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	notes, err := s.notes.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToNotes(notes))
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	uid, err := mustUserID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.NoteRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	var title, content string
	if req.Title != nil {
		title = *req.Title
	}
	if req.Content != nil {
		content = *req.Content
	}
	n, err := s.notes.Create(r.Context(), uid, title, content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"note": convert.ToNote(n)})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	uid, err := mustUserID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	noteID, err := convert.ParseNoteID(chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, errs.ErrNotFound)
		return
	}
	n, err := s.notes.Get(r.Context(), uid, noteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": convert.ToNote(n)})
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	uid, err := mustUserID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	noteID, err := convert.ParseNoteID(chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, errs.ErrNotFound)
		return
	}
	var req convert.NoteRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.notes.Update(r.Context(), uid, noteID, req.Patch())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": convert.ToNote(n)})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	uid, err := mustUserID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	noteID, err := convert.ParseNoteID(chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, errs.ErrNotFound)
		return
	}
	if err := s.notes.Delete(r.Context(), uid, noteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "note deleted"})
}

func (s *Server) handleChatBot(w http.ResponseWriter, r *http.Request) {
	uid, err := mustUserID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.ChatRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.assist.ChatToNote(r.Context(), uid, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"note": convert.ToNote(n)})
}

func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	var req convert.ImageRequest
	// base64 inflates by 4/3; leave room for the data URL prefix and JSON framing
	if err := decodeJSON(w, r, &req, service.MaxImageBytes*4/3+4096); err != nil {
		s.writeError(w, r, err)
		return
	}
	mime, data, err := decodeImage(req.Image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.assist.ImageToDraft(r.Context(), mime, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToImageDraft(d))
}

// decodeImage accepts raw base64 or a data URL ("data:image/png;base64,...").
func decodeImage(in string) (string, []byte, error) {
	in = strings.TrimSpace(in)
	declared := ""
	if rest, ok := strings.CutPrefix(in, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return "", nil, fmt.Errorf("%w: image must be base64 encoded", errs.ErrValidation)
		}
		declared = strings.TrimSuffix(meta, ";base64")
		in = payload
	}
	data, err := base64.StdEncoding.DecodeString(in)
	if err != nil {
		return "", nil, fmt.Errorf("%w: image is not valid base64", errs.ErrValidation)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") && strings.HasPrefix(declared, "image/") {
		mime = declared
	}
	return mime, data, nil
}
