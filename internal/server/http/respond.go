package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/noteai/internal/assist"
	"github.com/and161185/noteai/internal/convert"
	"github.com/and161185/noteai/internal/errs"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(code, msg string) convert.Error {
	return convert.Error{Code: code, Message: msg}
}

// errorMapping maps sentinel errors to status and wire code. Order matters: the first match wins.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{errBodyTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"},
	{errs.ErrValidation, http.StatusBadRequest, "validation"},
	{errs.ErrAlreadyExists, http.StatusBadRequest, "already_registered"},
	{errs.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{errs.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{errs.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh_token"},
	{errs.ErrNotFound, http.StatusNotFound, "not_found"},
	{errs.ErrVersionConflict, http.StatusConflict, "conflict"},
	{errs.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{assist.ErrUnavailable, http.StatusServiceUnavailable, "assistant_unavailable"},
	{assist.ErrEmptyDraft, http.StatusBadGateway, "assistant_failed"},
}

// writeError classifies err and writes the error body. Unclassified errors are logged
// and reported as a generic internal failure.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			writeJSON(w, m.status, errorBody(m.code, err.Error()))
			return
		}
	}
	s.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errs.ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON body", errs.ErrValidation)
	}
	return nil
}
