// Package auth guards the limiter's admin routes with HS256 bearer tokens.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
)

const issuer = "webhook-ratelimiter"

type contextKey string

const subjectKey contextKey = "auth_subject"

// Claims are the token claims accepted on admin routes.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates bearer tokens signed with a shared secret.
type Auth struct {
	secret []byte
	logger logging.Logger
}

// New creates an Auth. An empty secret disables the check.
func New(secret string) *Auth {
	return &Auth{
		secret: []byte(secret),
		logger: logging.Component("auth"),
	}
}

// Enabled reports whether tokens are required.
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0
}

// GenerateToken issues a token for subject valid for ttl.
func (a *Auth) GenerateToken(subject, scope string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", errors.ConfigError("JWT secret is not configured")
	}
	now := time.Now()
	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken parses tokenString and returns its claims.
func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.AuthError("invalid token").WithContext("reason", err.Error())
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token. It passes
// everything through when no secret is configured.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := a.ValidateToken(token)
		if err != nil {
			a.logger.WithContext(r.Context()).Warn("Rejected admin request",
				logging.Field{Key: "path", Value: r.URL.Path},
				logging.Field{Key: "error", Value: err.Error()},
			)
			unauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject returns the authenticated subject stored by RequireAuth.
func Subject(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="ratelimit-admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
