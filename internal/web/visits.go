package web

import (
	"net/http"

	"github.com/evcraddock/field-visits/internal/lifecycle"
	"github.com/evcraddock/field-visits/internal/visit"
)

// handleAPIVisits handles GET (list) and POST (schedule) on /api/visits.
// GET accepts status and client_id filters.
func (s *Server) handleAPIVisits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		status := q.Get("status")
		if status != "" && !visit.ValidStatus(status) {
			apiError(w, "status must be scheduled, completed or cancelled", http.StatusBadRequest)
			return
		}
		visits := s.manager.Visits(lifecycle.VisitFilter{
			Status:   visit.Status(status),
			ClientID: q.Get("client_id"),
		})
		if visits == nil {
			visits = make([]*visit.Visit, 0)
		}
		apiJSON(w, visits, http.StatusOK)
	case http.MethodPost:
		s.apiScheduleVisit(w, r)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiScheduleVisit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID        string          `json:"client_id"`
		Date            string          `json:"date"`
		Time            string          `json:"time"`
		Type            visit.VisitType `json:"type"`
		PlannedServices []string        `json:"planned_services"`
		Notes           string          `json:"notes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := s.manager.ScheduleVisit(lifecycle.ScheduleVisitInput{
		ClientID:        req.ClientID,
		Date:            req.Date,
		Time:            req.Time,
		Type:            req.Type,
		PlannedServices: req.PlannedServices,
		Notes:           req.Notes,
	})
	if err != nil {
		apiFailure(w, "scheduling visit", err)
		return
	}
	apiJSON(w, v, http.StatusCreated)
}

// handleAPIVisitRoute routes /api/visits/{id}, /api/visits/{id}/complete and
// /api/visits/{id}/status.
func (s *Server) handleAPIVisitRoute(w http.ResponseWriter, r *http.Request) {
	id, action := splitID(r.URL.Path, "/api/visits/")
	if id == "" {
		apiError(w, "visit id is required", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			v, err := s.manager.Visit(id)
			if err != nil {
				apiFailure(w, "loading visit", err)
				return
			}
			apiJSON(w, v, http.StatusOK)
		case http.MethodDelete:
			if err := s.manager.DeleteVisit(id); err != nil {
				apiFailure(w, "deleting visit", err)
				return
			}
			apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case "complete":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiCompleteVisit(w, r, id)
	case "status":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiUpdateVisitStatus(w, r, id)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// apiCompleteVisit completes a visit. An empty body completes it with no
// opportunities.
func (s *Server) apiCompleteVisit(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Opportunities []visit.Opportunity `json:"opportunities"`
	}
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	v, err := s.manager.CompleteVisit(id, req.Opportunities)
	if err != nil {
		apiFailure(w, "completing visit", err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

func (s *Server) apiUpdateVisitStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status visit.Status `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := s.manager.UpdateVisitStatus(id, req.Status)
	if err != nil {
		apiFailure(w, "updating visit status", err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}
