package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shineum/eml-studio/internal/archive"
	"github.com/shineum/eml-studio/internal/config"
	"github.com/shineum/eml-studio/internal/email"
	"github.com/shineum/eml-studio/internal/eml"
	"github.com/shineum/eml-studio/internal/store"
)

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	got, err := parseValues([]string{"Name=Ada", "Expr=a=b", "Empty="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"Name": "Ada", "Expr": "a=b", "Empty": ""}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %q, want %q", k, got[k], v)
		}
	}

	for _, bad := range []string{"novalue", "=x", " =x"} {
		if _, err := parseValues([]string{bad}); err == nil {
			t.Errorf("parseValues(%q): expected error", bad)
		}
	}
}

func TestSelectProvider(t *testing.T) {
	t.Parallel()

	graphCfg := config.GraphConfig{
		TenantID:     "tenant",
		ClientID:     "client",
		ClientSecret: "secret",
		Sender:       "sender@example.com",
	}

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{name: "default stdout", cfg: config.Config{}, want: "stdout"},
		{name: "explicit stdout", cfg: config.Config{Provider: "stdout", Graph: graphCfg}, want: "stdout"},
		{name: "auto graph", cfg: config.Config{Graph: graphCfg}, want: "msgraph"},
		{name: "explicit graph", cfg: config.Config{Provider: "graph", Graph: graphCfg}, want: "msgraph"},
		{name: "graph missing credentials", cfg: config.Config{Provider: "graph"}, wantErr: true},
		{name: "ses missing region", cfg: config.Config{Provider: "ses"}, wantErr: true},
		{name: "unknown", cfg: config.Config{Provider: "smtp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := selectProvider(context.Background(), &tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Name(): got %q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestSelectRewriter(t *testing.T) {
	t.Parallel()

	r, err := selectRewriter(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != nil {
		t.Errorf("expected no rewriter without keys, got %T", r)
	}

	r, err = selectRewriter(context.Background(), &config.Config{
		AI: config.AIConfig{OpenAIAPIKey: "sk-test"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Error("expected an OpenAI rewriter")
	}

	if _, err := selectRewriter(context.Background(), &config.Config{
		AI: config.AIConfig{Provider: "claude"},
	}); err == nil {
		t.Error("expected error for unknown AI provider")
	}

	if _, err := selectRewriter(context.Background(), &config.Config{
		AI: config.AIConfig{Provider: "gemini"},
	}); err == nil {
		t.Error("expected error for Gemini without a key")
	}
}

func TestInspectCommand(t *testing.T) {
	raw, err := eml.Serialize(&email.Message{
		FromName:    "Billing",
		FromAddress: "billing@example.com",
		Recipients:  "client@example.com",
		Subject:     "Invoice 42",
		HTMLBody:    "<p>Your invoice is attached.</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "invoice.eml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	out, err := runCmd(t, "", "inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"From:     Billing <billing@example.com>",
		"Subject:  Invoice 42",
		"Your invoice is attached.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestInspectCommandMbox(t *testing.T) {
	var entries []archive.Entry
	for _, subject := range []string{"One", "Two"} {
		raw, err := eml.Serialize(&email.Message{
			FromAddress: "a@example.com",
			Recipients:  "b@example.com",
			Subject:     subject,
			HTMLBody:    "<p>" + subject + "</p>",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		entries = append(entries, archive.Entry{From: "a@example.com", Data: []byte(raw)})
	}
	var buf bytes.Buffer
	if err := archive.Write(&buf, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := runCmd(t, buf.String(), "inspect", "--mbox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Subject:  One") || !strings.Contains(out, "Subject:  Two") {
		t.Errorf("expected both subjects in output:\n%s", out)
	}
}

func TestExportAndArchiveCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "studio.db")
	t.Setenv("STORE_PATH", dbPath)

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	created, err := st.CreateTemplate(context.Background(), email.Template{
		UserID:       "u1",
		Name:         "Welcome Mail",
		FromEmail:    "hello@example.com",
		Recipients:   "{Email}",
		Subject:      "Welcome {Name}",
		Body:         "<p>Hi {Name}</p>",
		Placeholders: []email.Placeholder{{Name: "Name", Sample: "Friend"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.Close()

	out, err := runCmd(t, "", "export", created.ID, "--set", "Name=Ada", "--set", "Email=ada@example.com", "-o", "-")
	if err != nil {
		t.Fatalf("export: unexpected error: %v", err)
	}
	if !strings.Contains(out, "Subject: Welcome Ada\r\n") {
		t.Errorf("expected resolved subject:\n%s", out)
	}
	if !strings.Contains(out, "To: ada@example.com\r\n") {
		t.Errorf("expected resolved recipient:\n%s", out)
	}

	out, err = runCmd(t, "", "archive", "--owner", "u1", "-o", "-")
	if err != nil {
		t.Fatalf("archive: unexpected error: %v", err)
	}
	messages, err := archive.Read(strings.NewReader(out))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("messages: got %d, want 1", len(messages))
	}
	if !strings.Contains(string(messages[0]), "Subject: Welcome Friend") {
		t.Errorf("expected sample value in archived message:\n%s", messages[0])
	}

	if _, err := runCmd(t, "", "export", "missing-id", "-o", "-"); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRewriteCommandRequiresBackend(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("AI_PROVIDER", "")

	_, err := runCmd(t, "hello", "rewrite", "--action", "grammar")
	if err == nil || !strings.Contains(err.Error(), "no AI backend configured") {
		t.Errorf("got %v, want missing backend error", err)
	}

	_, err = runCmd(t, "hello", "rewrite", "--action", "shout")
	if err == nil {
		t.Error("expected error for invalid action")
	}
}
