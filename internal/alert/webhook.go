package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-FV-Secret"

const defaultWebhookTimeout = 5 * time.Second

// WebhookPayload is the JSON body posted for each notification.
type WebhookPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WebhookSink posts notifications to an HTTP endpoint, typically a desktop
// or phone notifier. Delivery happens in the background; failures are
// logged and dropped.
type WebhookSink struct {
	url    string
	secret string
	client *http.Client

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewWebhookSink creates a sink posting to url. An empty secret sends no
// secret header.
func NewWebhookSink(url, secret string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: defaultWebhookTimeout},
	}
}

// Notify queues a POST and returns immediately. After Close it drops the
// notification.
func (w *WebhookSink) Notify(title, body string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		slog.Debug("webhook sink closed, dropping notification", "title", title)
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		if err := w.send(WebhookPayload{Title: title, Body: body}); err != nil {
			slog.Warn("webhook notification failed", "url", w.url, "title", title, "err", err)
		}
	}()
}

// Wait blocks until every queued POST has finished.
func (w *WebhookSink) Wait() {
	w.wg.Wait()
}

// Close stops accepting notifications and waits for queued POSTs.
func (w *WebhookSink) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *WebhookSink) send(payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set(SecretHeader, w.secret)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("notification failed with status %d: %s", resp.StatusCode, string(msg))
}
