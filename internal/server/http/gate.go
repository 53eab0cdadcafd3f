package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/model"
	"github.com/and161185/noteai/internal/token"
)

// UserLookup loads the account behind a verified access token.
type UserLookup interface {
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// Gate admits requests that carry a valid access token for an existing user.
type Gate struct {
	codec   *token.Codec
	users   UserLookup
	cookies CookieConfig
	slide   time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// NewGate constructs the admission middleware. slide > 0 enables re-issuing the access
// cookie when less than slide of its lifetime remains.
func NewGate(codec *token.Codec, users UserLookup, cookies CookieConfig, slide time.Duration, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{codec: codec, users: users, cookies: cookies, slide: slide, log: log, now: time.Now}
}

// Middleware wraps next with authentication.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, fromCookie := credential(r)
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthenticated", "missing access token"))
			return
		}
		claims, err := g.codec.Verify(raw, token.Access)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthenticated", "invalid or expired access token"))
			return
		}
		u, err := g.users.Profile(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, errorBody("not_found", "user not found"))
				return
			}
			g.log.Error("gate: user lookup", zap.String("user_id", claims.UserID.String()), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
			return
		}

		if g.slide > 0 && fromCookie && claims.ExpiresAt.Sub(g.now()) < g.slide {
			if fresh, _, err := g.codec.IssueAccess(u.ID); err == nil {
				g.cookies.setAccess(w, fresh, g.codec.AccessTTL())
			} else {
				g.log.Warn("gate: re-issue access token", zap.Error(err))
			}
		}

		ctx := WithUser(WithUserID(r.Context(), u.ID), u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// credential returns the access token and whether it came from the cookie.
// The cookie wins over the Authorization header.
func credential(r *http.Request) (string, bool) {
	if v := cookieValue(r, accessCookie); v != "" {
		return v, true
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:]), false
	}
	return "", false
}

// mustUserID is used by handlers mounted behind the Gate.
func mustUserID(r *http.Request) (uuid.UUID, error) {
	id, ok := UserIDFromCtx(r.Context())
	if !ok || id == uuid.Nil {
		return uuid.Nil, errs.ErrUnauthenticated
	}
	return id, nil
}
