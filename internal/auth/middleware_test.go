package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeValidator map[string]bool

func (f fakeValidator) Validate(raw string) (bool, error) {
	if raw == "fv_broken" {
		return false, errors.New("db gone")
	}
	return f[raw], nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, path, authHeader string) int {
	r := httptest.NewRequest("GET", path, nil)
	r.RemoteAddr = "10.0.0.7:5555"
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func TestRequireAPIKey(t *testing.T) {
	h := RequireAPIKey(fakeValidator{"fv_good": true}, okHandler)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health is public", "/health", "", http.StatusOK},
		{"missing header", "/api/visits", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/visits", "Basic fv_good", http.StatusUnauthorized},
		{"empty bearer", "/api/visits", "Bearer ", http.StatusUnauthorized},
		{"invalid key", "/api/visits", "Bearer fv_bad", http.StatusUnauthorized},
		{"valid key", "/api/visits", "Bearer fv_good", http.StatusOK},
		{"store error", "/api/visits", "Bearer fv_broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(h, tt.path, tt.header); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequireAPIKeyRateLimitsFailures(t *testing.T) {
	now := time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC)
	limiter := newRateLimiter()
	limiter.now = func() time.Time { return now }
	h := requireAPIKey(fakeValidator{"fv_good": true}, limiter, okHandler)

	// Successful requests never count against the limit.
	for i := 0; i < 20; i++ {
		if got := serve(h, "/api/clients", "Bearer fv_good"); got != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, got)
		}
	}

	for i := 0; i < rateLimitMaxFail; i++ {
		if got := serve(h, "/api/clients", "Bearer fv_bad"); got != http.StatusUnauthorized {
			t.Fatalf("failure %d: status = %d", i, got)
		}
	}
	if got := serve(h, "/api/clients", "Bearer fv_good"); got != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", got, http.StatusTooManyRequests)
	}

	now = now.Add(rateLimitWindow + time.Second)
	if got := serve(h, "/api/clients", "Bearer fv_good"); got != http.StatusOK {
		t.Errorf("after window: status = %d, want %d", got, http.StatusOK)
	}
}
