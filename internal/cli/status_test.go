package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evcraddock/field-visits/internal/syncer"
)

func TestStatusNoAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FV_API_KEY", "")
	t.Setenv("FV_SERVER_URL", "http://localhost:9999")

	if err := runStatus(); err != nil {
		t.Fatalf("status with no key: %v", err)
	}
}

func TestStatusShortAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FV_API_KEY", "fv_ab")
	t.Setenv("FV_SERVER_URL", "http://127.0.0.1:1")

	// Unreachable server is reported, not returned.
	if err := runStatus(); err != nil {
		t.Fatalf("status with short key: %v", err)
	}
}

func statusServer(t *testing.T, validKey string, pending []syncer.Entry) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+validKey {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(pending); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
}

func TestStatusWithServer(t *testing.T) {
	srv := statusServer(t, "fv_validkey1234567890abc", []syncer.Entry{
		{Kind: syncer.KindVisit, ID: "v1", State: syncer.State{Status: syncer.StatusFailed, Op: syncer.OpCreate, Error: "disk full"}},
	})
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("FV_API_KEY", "fv_validkey1234567890abc")
	t.Setenv("FV_SERVER_URL", srv.URL)

	if err := runStatus(); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestStatusWithInvalidKey(t *testing.T) {
	srv := statusServer(t, "fv_validkey1234567890abc", nil)
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("FV_API_KEY", "fv_badkey1234567890abcde")
	t.Setenv("FV_SERVER_URL", srv.URL)

	if err := runStatus(); err != nil {
		t.Fatalf("status: %v", err)
	}
}
