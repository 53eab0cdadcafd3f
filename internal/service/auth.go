// Package service contains application services for sessions, notes and AI-assisted drafts.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgcrypto "github.com/and161185/noteai/internal/crypto"
	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/limiter"
	"github.com/and161185/noteai/internal/model"
	"github.com/and161185/noteai/internal/repository"
	"github.com/and161185/noteai/internal/token"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

const minPasswordLen = 6

// dummyCredential is verified against when the email is unknown, so that branch
// pays the same Argon2 cost as a wrong password.
var dummyCredential = sync.OnceValues(func() (salt, hash []byte) {
	salt = make([]byte, pkgcrypto.SaltLen)
	return salt, pkgcrypto.HashPassword([]byte("noteai-unknown-account"), salt)
})

// AuthService defines the account and session lifecycle.
type AuthService interface {
	// Register creates a new user. It does not start a session.
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	// Login applies rate-limiting, verifies credentials and starts a session.
	Login(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// Refresh rotates the presented refresh token and issues a new pair.
	Refresh(ctx context.Context, presented string) (model.Tokens, error)
	// Logout ends the session bound to the presented refresh token, if any.
	Logout(ctx context.Context, presented string)
	// Profile loads the user by ID.
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// DeleteAccount removes the user and all their notes.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type AuthServiceImpl struct {
	users repository.UserRepository
	codec *token.Codec
	lim   limiter.Limiter
	log   *zap.Logger
	now   func() time.Time

	verify func(password, salt, hash []byte) bool
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, codec *token.Codec, lim limiter.Limiter, log *zap.Logger) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{
		users:  users,
		codec:  codec,
		lim:    lim,
		log:    log,
		now:    time.Now,
		verify: pkgcrypto.VerifyPassword,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates input and stores a new user with an Argon2id password hash.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: email is invalid", errs.ErrValidation)
	case len(password) < minPasswordLen:
		return nil, fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, minPasswordLen)
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	hash, salt, err := pkgcrypto.NewPasswordHash(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &model.User{
		ID:        uid,
		Name:      name,
		Email:     email,
		PwdHash:   hash,
		Salt:      salt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", uid.String()))
	return u, nil
}

// Login authenticates with rate limiting by (email, ip). On success the new refresh
// token overwrites whatever was stored, ending any other session of the account.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = normalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, fmt.Errorf("limiter: %w", err)
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.User{}, err
	}
	var ok bool
	if err != nil {
		salt, hash := dummyCredential()
		s.verify([]byte(password), salt, hash)
	} else {
		ok = s.verify([]byte(password), u.Salt, u.PwdHash)
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr != nil {
			s.log.Warn("limiter failure record", zap.Error(ferr))
		} else if blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		if err != nil {
			return model.Tokens{}, model.User{}, errs.ErrNotFound
		}
		return model.Tokens{}, model.User{}, errs.ErrInvalidCredentials
	}

	if err := s.lim.Success(ctx, email, ipHash); err != nil {
		s.log.Warn("limiter reset", zap.Error(err))
	}

	tokens, err := s.issuePair(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, tokens.RefreshToken); err != nil {
		return model.Tokens{}, model.User{}, fmt.Errorf("store refresh token: %w", err)
	}
	u.RefreshToken = tokens.RefreshToken
	s.log.Info("user logged in", zap.String("user_id", u.ID.String()))
	return tokens, *u, nil
}

// Refresh verifies the presented token against the stored one and rotates it with
// compare-and-swap. Of two concurrent calls with the same token only one succeeds.
func (s *AuthServiceImpl) Refresh(ctx context.Context, presented string) (model.Tokens, error) {
	if presented == "" {
		return model.Tokens{}, errs.ErrInvalidRefreshToken
	}
	claims, err := s.codec.Verify(presented, token.Refresh)
	if err != nil {
		return model.Tokens{}, errs.ErrInvalidRefreshToken
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, errs.ErrInvalidRefreshToken
		}
		return model.Tokens{}, err
	}
	if !sameToken(u.RefreshToken, presented) {
		return model.Tokens{}, errs.ErrInvalidRefreshToken
	}

	tokens, err := s.issuePair(u.ID)
	if err != nil {
		return model.Tokens{}, err
	}
	if err := s.users.SwapRefreshToken(ctx, u.ID, presented, tokens.RefreshToken); err != nil {
		if errors.Is(err, errs.ErrVersionConflict) {
			return model.Tokens{}, errs.ErrInvalidRefreshToken
		}
		return model.Tokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return tokens, nil
}

// Logout clears the stored refresh token if the presented one is current. Failures are
// logged and swallowed: logging out always succeeds from the caller's point of view.
func (s *AuthServiceImpl) Logout(ctx context.Context, presented string) {
	if presented == "" {
		return
	}
	claims, err := s.codec.Verify(presented, token.Refresh)
	if err != nil {
		return
	}
	err = s.users.SwapRefreshToken(ctx, claims.UserID, presented, "")
	switch {
	case err == nil:
		s.log.Info("user logged out", zap.String("user_id", claims.UserID.String()))
	case errors.Is(err, errs.ErrVersionConflict):
	default:
		s.log.Warn("logout: clear refresh token", zap.String("user_id", claims.UserID.String()), zap.Error(err))
	}
}

// Profile loads a user by ID.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	return s.users.GetByID(ctx, userID)
}

// DeleteAccount removes the user; the store drops their notes with them.
func (s *AuthServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("account deleted", zap.String("user_id", userID.String()))
	return nil
}

func (s *AuthServiceImpl) issuePair(userID uuid.UUID) (model.Tokens, error) {
	access, accessExp, err := s.codec.IssueAccess(userID)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(userID)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return model.Tokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func sameToken(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
