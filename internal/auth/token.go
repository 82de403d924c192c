package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// Issuer is stamped on every token and required on verification.
const Issuer = "notenexus"

// HeaderToken is the legacy header carrying a raw token.
const HeaderToken = "x-auth-token"

// Claims are the JWT claims of a session token. The subject is the user id.
type Claims struct {
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a [Tokens] signing with secret. A non-positive ttl defaults to 24 hours.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: jwt secret", shared.ErrMissingConfig)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for user.
func (t *Tokens) Issue(user *models.User) (string, error) {
	now := t.now()
	claims := Claims{
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
//
// Every failure wraps [shared.ErrUnauthorized]; expired tokens also wrap [shared.ErrTokenExpired].
func (t *Tokens) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: no token", shared.ErrUnauthorized)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", shared.ErrUnauthorized, shared.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: token is not valid: %v", shared.ErrUnauthorized, err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: token is not valid", shared.ErrUnauthorized)
	}
	return claims, nil
}

// TokenFromRequest reads the token from x-auth-token, falling back to an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(HeaderToken); token != "" {
		return token
	}

	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
