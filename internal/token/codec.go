// Package token issues and verifies the signed, time-bound access and refresh tokens.
//
// Access and refresh tokens are HS256 JWTs signed with two independent secrets, so a
// leaked access-signing key cannot forge long-lived refresh tokens and vice versa.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Kind selects the token family: its secret, TTL and expected "typ" claim.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

var (
	// ErrInvalid covers bad signatures, foreign signing methods, wrong token kind and malformed claims.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired reports a well-signed token whose exp has passed.
	ErrExpired = errors.New("token expired")
)

// Claims is the verified content of a token.
type Claims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec creates and verifies tokens. It is safe for concurrent use.
type Codec struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec constructs a Codec. Both secrets are required and must differ.
func NewCodec(accessKey, refreshKey []byte, accessTTL, refreshTTL time.Duration, opts ...Option) (*Codec, error) {
	if len(accessKey) == 0 || len(refreshKey) == 0 {
		return nil, errors.New("token: empty signing key")
	}
	if string(accessKey) == string(refreshKey) {
		return nil, errors.New("token: access and refresh keys must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	c := &Codec{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived access token for userID.
func (c *Codec) IssueAccess(userID uuid.UUID) (string, time.Time, error) {
	return c.issue(Access, userID, "")
}

// IssueRefresh signs a long-lived refresh token for userID. Every call yields a distinct
// value thanks to a random jti, even within the same second.
func (c *Codec) IssueRefresh(userID uuid.UUID) (string, time.Time, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jti: %w", err)
	}
	return c.issue(Refresh, userID, jti.String())
}

func (c *Codec) issue(kind Kind, userID uuid.UUID, jti string) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("token: empty subject")
	}
	key, ttl := c.params(kind)
	now := c.now()
	exp := now.Add(ttl)
	claims := jwtClaims{
		Type: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// Verify checks the signature, expiry and kind of raw and returns its claims.
// A token is expired from its exp second onward; there is no grace period.
func (c *Codec) Verify(raw string, kind Kind) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrInvalid
	}
	key, _ := c.params(kind)

	var claims jwtClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}
	if claims.Type != kind.String() {
		return Claims{}, ErrInvalid
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return Claims{}, ErrInvalid
	}

	out := Claims{UserID: id, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (c *Codec) params(kind Kind) ([]byte, time.Duration) {
	if kind == Refresh {
		return c.refreshKey, c.refreshTTL
	}
	return c.accessKey, c.accessTTL
}
