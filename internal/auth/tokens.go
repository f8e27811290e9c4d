package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/opitemdb/internal/domain"
)

// Claims are the claims of an access token. Subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type stateClaims struct {
	jwt.RegisteredClaims
	RedirectURI string `json:"redirect_uri"`
}

// Issuer signs and verifies HS256 access tokens and OAuth state tokens.
// Revoked token IDs are remembered for the session lifetime.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked *expirable.LRU[string, struct{}]
}

// IssuerOption tunes an Issuer
type IssuerOption func(*Issuer)

// WithClock replaces time.Now
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an issuer for tokens valid for ttl
func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: expirable.NewLRU[string, struct{}](revokedEntries, nil, ttl),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue signs an access token for u
func (i *Issuer) Issue(u domain.User) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID,
			Audience:  jwt.ClaimStrings{audienceAPI},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
		Role: u.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Parse verifies an access token. Every failure wraps domain.ErrUnauthenticated.
func (i *Issuer) Parse(token string) (*Claims, error) {
	var claims Claims
	if err := i.parse(token, audienceAPI, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	if _, revoked := i.revoked.Get(claims.ID); revoked {
		return nil, fmt.Errorf("%w: token was revoked", domain.ErrUnauthenticated)
	}
	return &claims, nil
}

// Revoke rejects the token with these claims from now on
func (i *Issuer) Revoke(c *Claims) {
	if c == nil || c.ID == "" {
		return
	}
	i.revoked.Add(c.ID, struct{}{})
}

// IssueState signs a short-lived OAuth state carrying the client's redirect URI
func (i *Issuer) IssueState(redirectURI string) (string, error) {
	now := i.now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{audienceState},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
			ID:        uuid.NewString(),
		},
		RedirectURI: redirectURI,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}
	return signed, nil
}

// ParseState verifies an OAuth state and returns its redirect URI
func (i *Issuer) ParseState(state string) (string, error) {
	var claims stateClaims
	if err := i.parse(state, audienceState, &claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.RedirectURI == "" {
		return "", fmt.Errorf("%w: no redirect_uri", ErrInvalidState)
	}
	return claims.RedirectURI, nil
}

func (i *Issuer) parse(token, audience string, claims jwt.Claims) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is empty", domain.ErrUnauthenticated)
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrUnauthenticated, describeJWTError(err))
	}
	return nil
}

func describeJWTError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature is invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "audience mismatch"
	}
	return err.Error()
}
