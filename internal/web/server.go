// Package web provides the HTTP API served by fv serve.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/app"
	"github.com/evcraddock/field-visits/internal/auth"
	"github.com/evcraddock/field-visits/internal/lifecycle"
	"github.com/evcraddock/field-visits/internal/logging"
	"github.com/evcraddock/field-visits/internal/syncer"
)

const shutdownTimeout = 10 * time.Second

// SyncStatus reports entities whose backend write has not settled.
type SyncStatus interface {
	Pending() []syncer.Entry
}

// Server is the JSON API server.
type Server struct {
	manager *lifecycle.Manager
	feed    *alert.FeedRepository
	sync    SyncStatus
	mux     *http.ServeMux
	handler http.Handler
}

// NewServer creates an API server over an open session. Every /api/ route
// requires a key accepted by keys.
func NewServer(sess *app.Session, keys auth.Validator) *Server {
	s := &Server{
		manager: sess.Manager,
		feed:    sess.Feed,
		sync:    sess.Sync,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/clients", s.handleAPIClients)
	s.mux.HandleFunc("/api/clients/", s.handleAPIClientRoute)
	s.mux.HandleFunc("/api/visits", s.handleAPIVisits)
	s.mux.HandleFunc("/api/visits/", s.handleAPIVisitRoute)
	s.mux.HandleFunc("/api/tasks", s.handleAPITasks)
	s.mux.HandleFunc("/api/tasks/", s.handleAPITaskRoute)
	s.mux.HandleFunc("/api/notifications", s.handleAPINotifications)
	s.mux.HandleFunc("/api/sync", s.handleAPISync)

	s.handler = logging.RequestLogger(auth.RequireAPIKey(keys, s.mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleAPINotifications serves GET (list) and DELETE (clear) on the feed.
func (s *Server) handleAPINotifications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				apiError(w, "limit must be a non-negative number", http.StatusBadRequest)
				return
			}
			limit = n
		}
		items, err := s.feed.List(limit)
		if err != nil {
			apiError(w, fmt.Sprintf("listing notifications: %v", err), http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = make([]alert.Notification, 0)
		}
		apiJSON(w, items, http.StatusOK)
	case http.MethodDelete:
		if err := s.feed.Clear(); err != nil {
			apiError(w, fmt.Sprintf("clearing notifications: %v", err), http.StatusInternalServerError)
			return
		}
		apiJSON(w, map[string]bool{"cleared": true}, http.StatusOK)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPISync lists entities that are pending or failed to sync.
func (s *Server) handleAPISync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries := s.sync.Pending()
	if entries == nil {
		entries = make([]syncer.Entry, 0)
	}
	apiJSON(w, entries, http.StatusOK)
}

// splitID splits "{id}" or "{id}/{action}" after the route prefix.
func splitID(path, prefix string) (id, action string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, action, _ = strings.Cut(rest, "/")
	return id, action
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// apiFailure maps a lifecycle error to its status code.
func apiFailure(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		apiError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, lifecycle.ErrNotFound):
		apiError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		apiError(w, err.Error(), http.StatusConflict)
	default:
		slog.Error(action, "err", err)
		apiError(w, fmt.Sprintf("%s: %v", action, err), http.StatusInternalServerError)
	}
}

func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "err", err)
	}
}

func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "err", err)
	}
}
