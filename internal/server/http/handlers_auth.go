package httpserver

import (
	"errors"
	"net"
	"net/http"

	"github.com/and161185/noteai/internal/convert"
	"github.com/and161185/noteai/internal/errs"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req convert.RegisterRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": convert.ToUser(u)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req convert.LoginRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	tok, u, err := s.auth.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		// unknown email is a client error on this endpoint, not a missing resource
		if errors.Is(err, errs.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, errorBody("not_found", "no account with this email"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.cookies.setAccess(w, tok.AccessToken, s.codec.AccessTTL())
	s.cookies.setRefresh(w, tok.RefreshToken, s.codec.RefreshTTL())
	writeJSON(w, http.StatusOK, convert.ToSession(tok, &u))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	presented := cookieValue(r, refreshCookie)
	if presented == "" {
		var req convert.RefreshRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err == nil {
			presented = req.RefreshToken
		}
	}
	tok, err := s.auth.Refresh(r.Context(), presented)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cookies.setAccess(w, tok.AccessToken, s.codec.AccessTTL())
	s.cookies.setRefresh(w, tok.RefreshToken, s.codec.RefreshTTL())
	writeJSON(w, http.StatusOK, convert.ToSession(tok, nil))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	presented := cookieValue(r, refreshCookie)
	if presented == "" && r.Method == http.MethodPost {
		var req convert.RefreshRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err == nil {
			presented = req.RefreshToken
		}
	}
	s.auth.Logout(r.Context(), presented)
	s.cookies.clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		s.writeError(w, r, errs.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": convert.ToUser(u)})
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	id, err := mustUserID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.DeleteAccount(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cookies.clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
