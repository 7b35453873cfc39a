package web

import (
	"net/http"

	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/lifecycle"
	"github.com/evcraddock/field-visits/internal/visit"
)

// clientRequest is the body of POST /api/clients and PUT /api/clients/{id}.
type clientRequest struct {
	Name           string                `json:"name"`
	Address        string                `json:"address"`
	Area           client.Area           `json:"area"`
	Category       string                `json:"category"`
	Classification client.Classification `json:"classification"`
	ContactPerson  string                `json:"contact_person"`
	ContactRole    string                `json:"contact_role"`
	Phone          string                `json:"phone"`
	Email          string                `json:"email"`
	Notes          string                `json:"notes"`
	Lat            *float64              `json:"lat"`
	Lng            *float64              `json:"lng"`
}

// handleAPIClients handles GET (list) and POST (add) on /api/clients.
func (s *Server) handleAPIClients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		clients := s.manager.Clients()
		if clients == nil {
			clients = make([]*client.Client, 0)
		}
		apiJSON(w, clients, http.StatusOK)
	case http.MethodPost:
		var req clientRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c, err := s.manager.AddClient(lifecycle.NewClient{
			Name:           req.Name,
			Address:        req.Address,
			Area:           req.Area,
			Category:       req.Category,
			Classification: req.Classification,
			ContactPerson:  req.ContactPerson,
			ContactRole:    req.ContactRole,
			Phone:          req.Phone,
			Email:          req.Email,
			Notes:          req.Notes,
			Lat:            req.Lat,
			Lng:            req.Lng,
		})
		if err != nil {
			apiFailure(w, "adding client", err)
			return
		}
		apiJSON(w, c, http.StatusCreated)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPIClientRoute routes /api/clients/{id} and /api/clients/{id}/notes.
func (s *Server) handleAPIClientRoute(w http.ResponseWriter, r *http.Request) {
	id, action := splitID(r.URL.Path, "/api/clients/")
	if id == "" {
		apiError(w, "client id is required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "notes" && r.Method == http.MethodPut:
		s.apiUpdateClientNotes(w, r, id)
	case action == "" && r.Method == http.MethodGet:
		s.apiGetClient(w, id)
	case action == "" && r.Method == http.MethodPut:
		s.apiUpdateClient(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		if err := s.manager.DeleteClient(id); err != nil {
			apiFailure(w, "deleting client", err)
			return
		}
		apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
	case action != "" && action != "notes":
		apiError(w, "not found", http.StatusNotFound)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiGetClient returns a client with its visits.
func (s *Server) apiGetClient(w http.ResponseWriter, id string) {
	c, err := s.manager.Client(id)
	if err != nil {
		apiFailure(w, "loading client", err)
		return
	}
	visits := s.manager.Visits(lifecycle.VisitFilter{ClientID: id})
	if visits == nil {
		visits = make([]*visit.Visit, 0)
	}

	type response struct {
		Client *client.Client `json:"client"`
		Visits []*visit.Visit `json:"visits"`
	}
	apiJSON(w, response{Client: c, Visits: visits}, http.StatusOK)
}

func (s *Server) apiUpdateClient(w http.ResponseWriter, r *http.Request, id string) {
	var req clientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.manager.UpdateClient(&client.Client{
		ID:             id,
		Name:           req.Name,
		Address:        req.Address,
		Area:           req.Area,
		Category:       req.Category,
		Classification: req.Classification,
		ContactPerson:  req.ContactPerson,
		ContactRole:    req.ContactRole,
		Phone:          req.Phone,
		Email:          req.Email,
		Notes:          req.Notes,
		Lat:            req.Lat,
		Lng:            req.Lng,
	})
	if err != nil {
		apiFailure(w, "updating client", err)
		return
	}
	apiJSON(w, c, http.StatusOK)
}

func (s *Server) apiUpdateClientNotes(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.manager.UpdateClientNotes(id, req.Notes)
	if err != nil {
		apiFailure(w, "updating notes", err)
		return
	}
	apiJSON(w, c, http.StatusOK)
}
