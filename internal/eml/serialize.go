// Package eml serializes resolved email messages into multipart/alternative
// RFC 2045/2046 documents suitable for saving as .eml files.
package eml

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/eml-studio/internal/email"
)

// ContentType is the media type of a serialized document.
const ContentType = "message/rfc822"

// dateLayout is the RFC 1123 date form with a literal GMT zone.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// boundaryPrefix contains "=_", which quoted-printable output can never
// contain, so the boundary cannot appear inside an encoded part.
const boundaryPrefix = "=_Part_"

var (
	// ErrNilMessage is returned when Serialize is called without a message.
	ErrNilMessage = errors.New("eml: message is nil")

	// ErrNotSevenBit is returned by the 7bit encoding when a body contains
	// bytes outside US-ASCII.
	ErrNotSevenBit = errors.New("eml: body is not 7bit clean")
)

// Encoding is a Content-Transfer-Encoding applied to both body parts.
type Encoding string

const (
	QuotedPrintable Encoding = "quoted-printable"
	SevenBit        Encoding = "7bit"
)

// Serializer turns messages into .eml documents. The zero value is not
// usable; construct one with New.
type Serializer struct {
	now      func() time.Time
	boundary func() string
	encoding Encoding
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithClock overrides the clock used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(s *Serializer) {
		s.now = now
	}
}

// WithBoundary overrides boundary generation.
func WithBoundary(fn func() string) Option {
	return func(s *Serializer) {
		s.boundary = fn
	}
}

// WithEncoding selects the transfer encoding for both parts.
func WithEncoding(enc Encoding) Option {
	return func(s *Serializer) {
		s.encoding = enc
	}
}

// New creates a Serializer that uses quoted-printable, the system clock and
// random boundaries unless overridden.
func New(opts ...Option) *Serializer {
	s := &Serializer{
		now:      time.Now,
		boundary: NewBoundary,
		encoding: QuotedPrintable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSerializer = New()

// Serialize renders msg with the default Serializer.
func Serialize(msg *email.Message) (string, error) {
	return defaultSerializer.Serialize(msg)
}

// NewBoundary returns a fresh boundary token.
func NewBoundary() string {
	return boundaryPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Serialize renders msg as a multipart/alternative document with a
// text/plain part derived from the HTML body followed by the text/html part.
// Lines are CRLF-terminated throughout. It is safe for concurrent use.
func (s *Serializer) Serialize(msg *email.Message) (string, error) {
	if msg == nil {
		return "", ErrNilMessage
	}

	plain, err := s.encode(PlainText(msg.HTMLBody))
	if err != nil {
		return "", fmt.Errorf("encoding text part: %w", err)
	}
	html, err := s.encode(msg.HTMLBody)
	if err != nil {
		return "", fmt.Errorf("encoding html part: %w", err)
	}

	boundary := s.boundary()

	headers := []string{
		"From: " + fromHeader(msg.FromName, msg.FromAddress),
		"To: " + headerValue(msg.Recipients),
	}
	if cc := headerValue(msg.Cc); cc != "" {
		headers = append(headers, "Cc: "+cc)
	}
	headers = append(headers,
		"Subject: "+headerValue(msg.Subject),
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="`+boundary+`"`,
		"Date: "+s.now().UTC().Format(dateLayout),
	)

	body := []string{
		"--" + boundary,
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: " + string(s.encoding),
		"",
		plain,
		"",
		"--" + boundary,
		"Content-Type: text/html; charset=utf-8",
		"Content-Transfer-Encoding: " + string(s.encoding),
		"",
		html,
		"",
		"--" + boundary + "--",
	}

	return strings.Join(headers, crlf) + crlf + crlf + strings.Join(body, crlf), nil
}

func (s *Serializer) encode(text string) (string, error) {
	if s.encoding == SevenBit {
		return encodeSevenBit(text)
	}
	return EncodeQuotedPrintable(text), nil
}

// encodeSevenBit passes ASCII text through with CRLF line endings.
func encodeSevenBit(text string) (string, error) {
	for i := 0; i < len(text); i++ {
		if c := text[i]; c >= 0x80 || c == 0 {
			return "", fmt.Errorf("%w: byte 0x%02X at offset %d", ErrNotSevenBit, c, i)
		}
	}
	return strings.Join(splitLines(text), crlf), nil
}

// fromHeader renders the From value, quoting the display name when present.
func fromHeader(name, address string) string {
	address = headerValue(address)
	name = headerValue(name)
	if name == "" {
		return address
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
	return `"` + escaped + `" <` + address + `>`
}

// headerValue trims v and folds any embedded line breaks into single spaces
// so a header can never spill onto a new line.
func headerValue(v string) string {
	if !strings.ContainsAny(v, "\r\n") {
		return strings.TrimSpace(v)
	}
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == '\r' || r == '\n'
	})
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
