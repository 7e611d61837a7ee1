package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/common/validation"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/ratelimit"
)

// UserIDHeader identifies the caller when present; otherwise the client IP
// is used.
const UserIDHeader = "X-User-ID"

const maxUserAgent = 512

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	Limit  int
	Window time.Duration
	// KeyFunc picks the identity for a request; defaults to IdentityKey
	KeyFunc func(*http.Request) string
}

// RateLimit admits requests through the registry's active limiter. Denied
// requests get 429 with Retry-After; every response carries X-RateLimit-*
// headers.
func RateLimit(registry *ratelimit.Registry, opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.KeyFunc == nil {
		opts.KeyFunc = IdentityKey
	}
	logger := logging.Component("ratelimit_middleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := opts.KeyFunc(r)
			ctx := logging.ContextWithIdentity(r.Context(), identity)
			r = r.WithContext(ctx)

			result, err := registry.CheckRequest(ctx, identity, opts.Window, opts.Limit, requestMetadata(r))
			if err != nil {
				logger.WithContext(ctx).Error("Rate limit check unavailable", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "rate limiter unavailable"})
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(opts.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt((result.ResetTime+999)/1000, 10))

			if !result.Allowed {
				h.Set("Retry-After", strconv.Itoa(result.RetryAfterSec))
				writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"error":      "rate limit exceeded",
					"retryAfter": result.RetryAfterSec,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IdentityKey uses X-User-ID when set and the client IP otherwise.
func IdentityKey(r *http.Request) string {
	if user := UserKey(r); user != "" {
		return "user:" + user
	}
	return "ip:" + IPKey(r)
}

// UserKey extracts the user id header.
func UserKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserIDHeader))
}

// IPKey returns the client IP, preferring the first X-Forwarded-For hop,
// then X-Real-IP, then the connection address without its port.
func IPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isIP(s string) bool {
	return s != "" && validation.Default().Var(s, "ip") == nil
}

func requestMetadata(r *http.Request) *models.Metadata {
	endpoint := mux.Vars(r)["endpoint"]
	if endpoint == "" {
		endpoint = r.URL.Path
	}
	return &models.Metadata{
		UserAgent: truncate(r.Header.Get("User-Agent"), maxUserAgent),
		Endpoint:  truncate(endpoint, 256),
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
