package archive

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shineum/eml-studio/internal/email"
	"github.com/shineum/eml-studio/internal/eml"
	"github.com/shineum/eml-studio/internal/parser"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	subjects := []string{"First", "Second", "Third"}
	var entries []Entry
	for _, subject := range subjects {
		doc, err := eml.Serialize(&email.Message{
			FromAddress: "sender@example.com",
			Recipients:  "to@example.com",
			Subject:     subject,
			HTMLBody:    "<p>From the desk of " + subject + "</p>",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		entries = append(entries, Entry{
			From: "sender@example.com",
			Date: time.Date(2024, 9, 18, 10, 0, 0, 0, time.UTC),
			Data: []byte(doc),
		})
	}

	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "From sender@example.com ") {
		t.Errorf("mbox does not start with a separator line: %q", buf.String()[:40])
	}

	messages, err := Read(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != len(subjects) {
		t.Fatalf("messages: got %d, want %d", len(messages), len(subjects))
	}

	for i, raw := range messages {
		doc, err := parser.Parse(raw)
		if err != nil {
			t.Fatalf("parsing message %d: %v", i, err)
		}
		if doc.Message.Subject != subjects[i] {
			t.Errorf("message %d Subject: got %q, want %q", i, doc.Message.Subject, subjects[i])
		}
		want := "<p>From the desk of " + subjects[i] + "</p>"
		if doc.Message.HTMLBody != want {
			t.Errorf("message %d HTMLBody: got %q, want %q", i, doc.Message.HTMLBody, want)
		}
	}
}

func TestWriteDefaultsSender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Write(&buf, []Entry{{Data: []byte("Subject: x\r\n\r\nbody\r\n")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "From MAILER-DAEMON ") {
		t.Errorf("separator line: got %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestReadTrimsTerminator(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{From: "a@example.com", Data: []byte("Subject: x\r\n\r\nFrom the start\r\nbody\r\n")},
		{From: "b@example.com", Data: []byte("Subject: y\r\n\r\nno line break")},
	}

	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	messages, err := Read(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(messages))
	}

	want := []string{
		"Subject: x\r\n\r\nFrom the start\r\nbody\r\n",
		"Subject: y\r\n\r\nno line break\r\n",
	}
	for i, raw := range messages {
		if string(raw) != want[i] {
			t.Errorf("message %d: got %q, want %q", i, raw, want[i])
		}
	}
}

func TestReadUnescapesQuotedFrom(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Write(&buf, []Entry{{Data: []byte("Subject: x\r\n\r\n>From a quote\r\n")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	messages, err := Read(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("messages: got %d, want 1", len(messages))
	}
	// mboxo has no way to keep a literal ">From " line.
	if want := "Subject: x\r\n\r\nFrom a quote\r\n"; string(messages[0]) != want {
		t.Errorf("got %q, want %q", messages[0], want)
	}
}

func TestReadEmpty(t *testing.T) {
	t.Parallel()

	messages, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("messages: got %d, want 0", len(messages))
	}
}
