package cli

import (
	"testing"
)

func TestCommandsRejectBadArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"client add without name", []string{"client", "add"}},
		{"client show without id", []string{"client", "show"}},
		{"client notes without text", []string{"client", "notes", "c1"}},
		{"client remove extra", []string{"client", "remove", "c1", "c2"}},
		{"visit schedule short", []string{"visit", "schedule", "c1", "2026-02-08", "09:00"}},
		{"visit complete without id", []string{"visit", "complete"}},
		{"visit cancel extra", []string{"visit", "cancel", "v1", "v2"}},
		{"task add without title", []string{"task", "add"}},
		{"task done without id", []string{"task", "done"}},
		{"key create without name", []string{"key", "create"}},
		{"config set-server without url", []string{"config", "set-server"}},
		{"alerts with args", []string{"alerts", "now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestKeyRevokeRejectsNonNumericID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := executeCommand("key", "revoke", "abc")
	if err == nil {
		t.Fatal("expected error for non-numeric ID")
	}
	if err.Error() != "invalid key ID: abc" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestVisitCompleteRejectsBadOpportunity(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FV_SERVER_URL", "http://127.0.0.1:1")
	_, err := executeCommand("visit", "complete", "v1", "-o", "Cloud & Backups=lots")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != `opportunity "Cloud & Backups=lots": invalid value` {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParseOpportunity(t *testing.T) {
	tests := []struct {
		arg       string
		service   string
		value     float64
		hasValue  bool
		expectErr bool
	}{
		{"Cloud & Backups", "Cloud & Backups", 0, false, false},
		{"CCTV & Electronic Security=45000", "CCTV & Electronic Security", 45000, true, false},
		{" Monthly Maintenance (SLA) = 1200.5 ", "Monthly Maintenance (SLA)", 1200.5, true, false},
		{"=100", "", 0, false, true},
		{"ERP=abc", "", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			o, err := parseOpportunity(tt.arg)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if o.ServiceType != tt.service {
				t.Errorf("service = %q, want %q", o.ServiceType, tt.service)
			}
			if (o.Value != nil) != tt.hasValue {
				t.Fatalf("value set = %v, want %v", o.Value != nil, tt.hasValue)
			}
			if tt.hasValue && *o.Value != tt.value {
				t.Errorf("value = %v, want %v", *o.Value, tt.value)
			}
		})
	}
}
