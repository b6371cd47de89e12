// Package auth provides HS256 bearer-token identity for the server transports.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// defaultTokenTTL bounds minted token lifetime when none is configured.
const defaultTokenTTL = 24 * time.Hour

// minSecretBytes is the shortest accepted signing secret.
const minSecretBytes = 16

// ErrMissingToken reports requests without a bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken reports tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid bearer token")

// ErrInvalidConfig reports unusable authenticator settings.
var ErrInvalidConfig = errors.New("invalid auth config")

// Config defines token signing settings.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// Claims is the signed token payload. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator mints and verifies bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New validates cfg and builds an Authenticator.
func New(cfg Config) (*Authenticator, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("%w: secret must be at least %d bytes", ErrInvalidConfig, minSecretBytes)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Authenticator{
		secret: []byte(secret),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    ttl,
		now:    now,
	}, nil
}

// Mint signs a token for userID.
func (a *Authenticator) Mint(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("mint token: user id is required")
	}
	now := a.now().UTC()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks token and returns its user id.
func (a *Authenticator) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: subject is empty", ErrInvalidToken)
	}
	return subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's user id on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeUnauthorized(w, ErrMissingToken)
			return
		}
		userID, err := a.Verify(token)
		if err != nil {
			writeUnauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

// BearerToken extracts the token of an `Authorization: Bearer <token>` header.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUser attaches a normalized user id to context.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey{}, strings.TrimSpace(userID))
}

// UserFromContext returns the caller's user id when present.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userContextKey{}).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// userContextKey stores context keys for caller identity.
type userContextKey struct{}

// writeUnauthorized writes the structured error envelope used by the HTTP API.
func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="skillroute"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "unauthorized",
			"message": err.Error(),
		},
	})
}
