// Package parser reads .eml documents back into the email data model. It is
// used to inspect exported files and to verify what the serializer wrote.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/shineum/eml-studio/internal/email"
)

// Document is a parsed .eml file.
type Document struct {
	Message  *email.Message
	TextBody string
	Date     time.Time
	Boundary string
}

// Parse parses a raw RFC 5322 message. Transfer encodings are decoded; the
// text/plain part lands in TextBody and the text/html part in the message's
// HTMLBody. Other parts are logged and skipped.
func Parse(raw []byte) (*Document, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	doc := &Document{Message: &email.Message{}}
	msg := doc.Message

	msg.FromName, msg.FromAddress = parseFrom(mr.Header)
	msg.Recipients = mr.Header.Get("To")
	msg.Cc = mr.Header.Get("Cc")

	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = mr.Header.Get("Subject")
	}

	if date, err := mr.Header.Date(); err == nil {
		doc.Date = date
	}

	if _, params, err := mr.Header.ContentType(); err == nil {
		doc.Boundary = params["boundary"]
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read next part: %w", err)
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			slog.Warn("skipping attachment part")
			continue
		}

		// A part without Content-Type is text/plain per RFC 2045.
		mediaType := "text/plain"
		if inline.Get("Content-Type") != "" {
			mediaType, _, err = inline.ContentType()
			if err != nil {
				slog.Warn("failed to parse part content type, skipping", "error", err)
				continue
			}
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s part: %w", mediaType, err)
		}
		content := strings.TrimSuffix(string(body), "\r\n")

		switch mediaType {
		case "text/plain":
			if doc.TextBody == "" {
				doc.TextBody = content
			}
		case "text/html":
			if msg.HTMLBody == "" {
				msg.HTMLBody = content
			}
		default:
			slog.Warn("unrecognized MIME part, skipping", "content_type", mediaType)
		}
	}

	return doc, nil
}

// parseFrom splits the From header into display name and address. Headers
// that do not parse as an address are returned whole as the address.
func parseFrom(h mail.Header) (string, string) {
	addrs, err := h.AddressList("From")
	if err != nil || len(addrs) == 0 {
		return "", strings.TrimSpace(h.Get("From"))
	}
	return addrs[0].Name, addrs[0].Address
}
