package web

import (
	"net/http"

	"github.com/evcraddock/field-visits/internal/lifecycle"
	"github.com/evcraddock/field-visits/internal/task"
)

// handleAPITasks handles GET (list) and POST (add) on /api/tasks.
func (s *Server) handleAPITasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var tasks []*task.Task
		if r.URL.Query().Get("urgent") == "true" {
			tasks = s.manager.UrgentTasks()
		} else {
			tasks = s.manager.Tasks()
		}
		if tasks == nil {
			tasks = make([]*task.Task, 0)
		}
		apiJSON(w, tasks, http.StatusOK)
	case http.MethodPost:
		var req struct {
			Title           string        `json:"title"`
			DueDate         string        `json:"due_date"`
			Priority        task.Priority `json:"priority"`
			RelatedClientID string        `json:"related_client_id"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		t, err := s.manager.AddTask(lifecycle.NewTask{
			Title:           req.Title,
			DueDate:         req.DueDate,
			Priority:        req.Priority,
			RelatedClientID: req.RelatedClientID,
		})
		if err != nil {
			apiFailure(w, "adding task", err)
			return
		}
		apiJSON(w, t, http.StatusCreated)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPITaskRoute routes /api/tasks/{id} and /api/tasks/{id}/toggle.
func (s *Server) handleAPITaskRoute(w http.ResponseWriter, r *http.Request) {
	id, action := splitID(r.URL.Path, "/api/tasks/")
	if id == "" {
		apiError(w, "task id is required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "toggle" && r.Method == http.MethodPost:
		t, err := s.manager.ToggleTask(id)
		if err != nil {
			apiFailure(w, "toggling task", err)
			return
		}
		apiJSON(w, t, http.StatusOK)
	case action == "" && r.Method == http.MethodDelete:
		if err := s.manager.DeleteTask(id); err != nil {
			apiFailure(w, "deleting task", err)
			return
		}
		apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
	case action != "" && action != "toggle":
		apiError(w, "not found", http.StatusNotFound)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
