// Package apiclient provides an HTTP client for the field-visits REST API.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/syncer"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Client is an HTTP client for the field-visits API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ClientInput is the editable part of a client.
type ClientInput struct {
	Name           string                `json:"name"`
	Address        string                `json:"address,omitempty"`
	Area           client.Area           `json:"area,omitempty"`
	Category       string                `json:"category,omitempty"`
	Classification client.Classification `json:"classification,omitempty"`
	ContactPerson  string                `json:"contact_person"`
	ContactRole    string                `json:"contact_role,omitempty"`
	Phone          string                `json:"phone,omitempty"`
	Email          string                `json:"email,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	Lat            *float64              `json:"lat,omitempty"`
	Lng            *float64              `json:"lng,omitempty"`
}

// ClientDetail is the response from GET /api/clients/{id}.
type ClientDetail struct {
	Client *client.Client `json:"client"`
	Visits []*visit.Visit `json:"visits"`
}

// ListClients returns all clients ordered by name.
func (c *Client) ListClients() ([]*client.Client, error) {
	var clients []*client.Client
	if err := c.get("/api/clients", &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClient returns a client with its visits.
func (c *Client) GetClient(id string) (*ClientDetail, error) {
	var resp ClientDetail
	if err := c.get("/api/clients/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddClient creates a client.
func (c *Client) AddClient(in ClientInput) (*client.Client, error) {
	var out client.Client
	if err := c.send(http.MethodPost, "/api/clients", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateClient replaces a client's editable fields.
func (c *Client) UpdateClient(id string, in ClientInput) (*client.Client, error) {
	var out client.Client
	if err := c.send(http.MethodPut, "/api/clients/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetClientNotes replaces a client's notes.
func (c *Client) SetClientNotes(id, notes string) (*client.Client, error) {
	var out client.Client
	body := map[string]string{"notes": notes}
	if err := c.send(http.MethodPut, "/api/clients/"+url.PathEscape(id)+"/notes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClient removes a client.
func (c *Client) DeleteClient(id string) error {
	return c.send(http.MethodDelete, "/api/clients/"+url.PathEscape(id), nil, nil)
}

// ScheduleRequest is the body of POST /api/visits.
type ScheduleRequest struct {
	ClientID        string          `json:"client_id"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	Type            visit.VisitType `json:"type"`
	PlannedServices []string        `json:"planned_services,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// VisitFilter narrows ListVisits. Empty fields match everything.
type VisitFilter struct {
	Status   visit.Status
	ClientID string
}

// ListVisits returns visits in schedule order.
func (c *Client) ListVisits(f VisitFilter) ([]*visit.Visit, error) {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", string(f.Status))
	}
	if f.ClientID != "" {
		params.Set("client_id", f.ClientID)
	}
	path := "/api/visits"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var visits []*visit.Visit
	if err := c.get(path, &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// GetVisit returns one visit.
func (c *Client) GetVisit(id string) (*visit.Visit, error) {
	var v visit.Visit
	if err := c.get("/api/visits/"+url.PathEscape(id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ScheduleVisit books a visit.
func (c *Client) ScheduleVisit(req ScheduleRequest) (*visit.Visit, error) {
	var v visit.Visit
	if err := c.send(http.MethodPost, "/api/visits", req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CompleteVisit completes a visit with the opportunities found.
func (c *Client) CompleteVisit(id string, opps []visit.Opportunity) (*visit.Visit, error) {
	if opps == nil {
		opps = []visit.Opportunity{}
	}
	body := map[string][]visit.Opportunity{"opportunities": opps}
	var v visit.Visit
	if err := c.send(http.MethodPost, "/api/visits/"+url.PathEscape(id)+"/complete", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetVisitStatus moves a visit to status.
func (c *Client) SetVisitStatus(id string, status visit.Status) (*visit.Visit, error) {
	body := map[string]visit.Status{"status": status}
	var v visit.Visit
	if err := c.send(http.MethodPost, "/api/visits/"+url.PathEscape(id)+"/status", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteVisit removes a visit.
func (c *Client) DeleteVisit(id string) error {
	return c.send(http.MethodDelete, "/api/visits/"+url.PathEscape(id), nil, nil)
}

// TaskRequest is the body of POST /api/tasks.
type TaskRequest struct {
	Title           string        `json:"title"`
	DueDate         string        `json:"due_date,omitempty"`
	Priority        task.Priority `json:"priority,omitempty"`
	RelatedClientID string        `json:"related_client_id,omitempty"`
}

// ListTasks returns tasks by due date and priority. With urgentOnly set,
// only open high-priority tasks due today are returned.
func (c *Client) ListTasks(urgentOnly bool) ([]*task.Task, error) {
	path := "/api/tasks"
	if urgentOnly {
		path += "?urgent=true"
	}
	var tasks []*task.Task
	if err := c.get(path, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// AddTask creates a task.
func (c *Client) AddTask(req TaskRequest) (*task.Task, error) {
	var t task.Task
	if err := c.send(http.MethodPost, "/api/tasks", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ToggleTask flips a task's completion flag.
func (c *Client) ToggleTask(id string) (*task.Task, error) {
	var t task.Task
	if err := c.send(http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/toggle", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(id string) error {
	return c.send(http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// ListNotifications returns the newest limit feed entries, or all when
// limit is 0.
func (c *Client) ListNotifications(limit int) ([]alert.Notification, error) {
	path := "/api/notifications"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var items []alert.Notification
	if err := c.get(path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ClearNotifications empties the feed.
func (c *Client) ClearNotifications() error {
	return c.send(http.MethodDelete, "/api/notifications", nil, nil)
}

// PendingSync returns entities not yet written to the backend.
func (c *Client) PendingSync() ([]syncer.Entry, error) {
	var entries []syncer.Entry
	if err := c.get("/api/sync", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Health checks that the server is reachable.
func (c *Client) Health() error {
	return c.get("/health", nil)
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	return c.send(http.MethodGet, path, nil, result)
}

// send performs a request with an optional JSON body and decodes the
// response.
func (c *Client) send(method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "err", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := "server error: " + http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
