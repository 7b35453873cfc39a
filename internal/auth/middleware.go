package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Validator checks raw API keys. *APIKeyStore implements it.
type Validator interface {
	Validate(rawKey string) (bool, error)
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// rateLimiter tracks failed API key attempts per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	now      func() time.Time
	attempts map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{now: time.Now, attempts: make(map[string][]time.Time)}
}

// recent prunes expired failures for ip and returns how many remain.
// Callers must hold mu.
func (rl *rateLimiter) recent(ip string) int {
	cutoff := rl.now().Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return 0
	}
	rl.attempts[ip] = valid
	return len(valid)
}

func (rl *rateLimiter) blocked(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.recent(ip) >= rateLimitMaxFail
}

func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.recent(ip)
	rl.attempts[ip] = append(rl.attempts[ip], rl.now())
}

// RequireAPIKey is middleware that validates Bearer token auth for /api/
// routes. Other routes pass through untouched.
// Returns 401 for missing/invalid keys, 429 once an IP has failed too often.
func RequireAPIKey(keys Validator, next http.Handler) http.Handler {
	return requireAPIKey(keys, newRateLimiter(), next)
}

func requireAPIKey(keys Validator, limiter *rateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if limiter.blocked(ip) {
			writeError(w, http.StatusTooManyRequests, "too many failed attempts")
			return
		}

		authHeader := r.Header.Get("Authorization")
		key, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || key == "" {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		valid, err := keys.Validate(key)
		if err != nil {
			slog.Error("validating api key", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !valid {
			limiter.recordFailure(ip)
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
