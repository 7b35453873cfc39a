package alert

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// MailSink emails each notification to a fixed list of recipients. Like
// WebhookSink it delivers in the background and only logs failures.
type MailSink struct {
	cfg  SMTPConfig
	to   []string
	send func(to []string, msg []byte) error

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewMailSink creates a sink mailing to the given addresses.
func NewMailSink(cfg SMTPConfig, to []string) *MailSink {
	m := &MailSink{cfg: cfg, to: to}
	m.send = m.deliver
	return m
}

// Notify queues an email and returns immediately. After Close it drops the
// notification.
func (m *MailSink) Notify(title, body string) {
	if len(m.to) == 0 {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		slog.Debug("mail sink closed, dropping notification", "title", title)
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	msg := buildMessage(m.cfg.From, m.to, "[fv] "+title, body)
	go func() {
		defer m.wg.Done()
		if err := m.send(m.to, msg); err != nil {
			slog.Warn("email notification failed", "host", m.cfg.Host, "title", title, "err", err)
		}
	}()
}

// Wait blocks until every queued email has been handed off or failed.
func (m *MailSink) Wait() {
	m.wg.Wait()
}

// Close stops accepting notifications and waits for queued emails.
func (m *MailSink) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wg.Wait()
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", headerValue(from))
	fmt.Fprintf(&sb, "To: %s\r\n", headerValue(strings.Join(to, ", ")))
	fmt.Fprintf(&sb, "Subject: %s\r\n", headerValue(subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// headerValue folds line breaks into spaces so a value stays on its own
// header line.
func headerValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}

// deliver sends msg over SMTP. Port 465 uses implicit TLS, anything else
// STARTTLS when the server offers it.
func (m *MailSink) deliver(to []string, msg []byte) error {
	if !m.cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}
	addr := m.cfg.Host + ":" + m.cfg.Port

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	if m.cfg.Port != "465" {
		if err := smtp.SendMail(addr, auth, m.cfg.From, to, msg); err != nil {
			return fmt.Errorf("sending email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}
	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() { _ = c.Close() }()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return c.Quit()
}
