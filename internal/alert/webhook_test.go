package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSinkPostsPayload(t *testing.T) {
	var (
		mu      sync.Mutex
		got     []WebhookPayload
		secrets []string
		ctypes  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		got = append(got, p)
		secrets = append(secrets, r.Header.Get(SecretHeader))
		ctypes = append(ctypes, r.Header.Get("Content-Type"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "s3cret")
	s.Notify("Imminent visit: ICB", "Your Technical visit starts in 5 minutes.")
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "Imminent visit: ICB", got[0].Title)
	assert.Equal(t, "Your Technical visit starts in 5 minutes.", got[0].Body)
	assert.Equal(t, "s3cret", secrets[0])
	assert.Equal(t, "application/json", ctypes[0])
}

func TestWebhookSinkNoSecretHeader(t *testing.T) {
	var (
		mu     sync.Mutex
		header []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		header = r.Header.Values(SecretHeader)
		mu.Unlock()
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "")
	s.Notify("t", "b")
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, header)
}

func TestWebhookSinkSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "")
	assert.NotPanics(t, func() {
		s.Notify("t", "b")
		s.Wait()
	})

	err := s.send(WebhookPayload{Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestWebhookSinkUnreachable(t *testing.T) {
	s := NewWebhookSink("http://127.0.0.1:1", "")
	err := s.send(WebhookPayload{Title: "t"})
	assert.Error(t, err)
}

func TestWebhookSinkDropsAfterClose(t *testing.T) {
	var (
		mu   sync.Mutex
		hits int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "")
	s.Notify("before", "b")
	s.Close()
	s.Notify("after", "b")
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
}
