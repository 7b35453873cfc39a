package alert

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("fv@example.com", []string{"ana@example.com", "rui@example.com"},
		"[fv] Imminent visit: Vulcan", "Your Prospecting visit starts in 15 minutes."))

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "From: fv@example.com\r\n")
	assert.Contains(t, head, "To: ana@example.com, rui@example.com\r\n")
	assert.Contains(t, head, "Subject: [fv] Imminent visit: Vulcan\r\n")
	assert.Contains(t, head, "charset=\"UTF-8\"")
	assert.Equal(t, "Your Prospecting visit starts in 15 minutes.", body)
}

func TestBuildMessageKeepsHeadersOnOneLine(t *testing.T) {
	msg := string(buildMessage("fv@example.com\r\nX-Evil: 1", []string{"ana@example.com"},
		"[fv] Imminent visit: Acme\r\nBcc: evil@example.com", "body"))

	head, _, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	lines := strings.Split(head, "\r\n")
	require.Len(t, lines, 5)
	for _, l := range lines {
		assert.False(t, strings.HasPrefix(l, "Bcc:"), "injected header line %q", l)
		assert.False(t, strings.HasPrefix(l, "X-Evil:"), "injected header line %q", l)
	}
	assert.Contains(t, head, "Subject: [fv] Imminent visit: Acme  Bcc: evil@example.com\r\n")
}

func TestMailSinkQueuesMessage(t *testing.T) {
	var (
		mu   sync.Mutex
		sent [][]byte
		rcpt [][]string
	)
	m := NewMailSink(SMTPConfig{Host: "smtp.example.com", Port: "587", From: "fv@example.com"}, []string{"ana@example.com"})
	m.send = func(to []string, msg []byte) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, msg)
		rcpt = append(rcpt, to)
		return nil
	}

	m.Notify("Imminent visit: ICB", "Your Technical visit starts in 5 minutes.")
	m.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, rcpt[0])
	assert.Contains(t, string(sent[0]), "Subject: [fv] Imminent visit: ICB")
}

func TestMailSinkFailureIsSwallowed(t *testing.T) {
	m := NewMailSink(SMTPConfig{Host: "smtp.example.com", From: "fv@example.com"}, []string{"ana@example.com"})
	m.send = func([]string, []byte) error { return errors.New("connection refused") }

	assert.NotPanics(t, func() {
		m.Notify("t", "b")
		m.Wait()
	})
}

func TestMailSinkWithoutRecipientsSendsNothing(t *testing.T) {
	called := false
	m := NewMailSink(SMTPConfig{Host: "smtp.example.com", From: "fv@example.com"}, nil)
	m.send = func([]string, []byte) error {
		called = true
		return nil
	}

	m.Notify("t", "b")
	m.Wait()
	assert.False(t, called)
}

func TestMailSinkDropsAfterClose(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
	)
	m := NewMailSink(SMTPConfig{Host: "smtp.example.com", From: "fv@example.com"}, []string{"ana@example.com"})
	m.send = func([]string, []byte) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}

	m.Notify("before", "b")
	m.Close()
	m.Notify("after", "b")
	m.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestDeliverRequiresConfig(t *testing.T) {
	m := NewMailSink(SMTPConfig{}, []string{"ana@example.com"})
	assert.Error(t, m.deliver([]string{"ana@example.com"}, []byte("x")))
}
