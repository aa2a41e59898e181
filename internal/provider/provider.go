// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/shineum/eml-studio/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider hands an already serialized document to the target service
// (e.g., stdout, AWS SES, Microsoft Graph).
type Provider interface {
	// Send delivers a serialized message through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, exp *email.Export) error

	// Name returns the human-readable name of this provider.
	Name() string
}

// Envelope lists every recipient of an export: the To and Cc headers plus the
// blind copies that only exist on the envelope.
type Envelope struct {
	To  []string
	Cc  []string
	Bcc []string
}

// All returns every envelope recipient.
func (e Envelope) All() []string {
	all := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	all = append(all, e.To...)
	all = append(all, e.Cc...)
	return append(all, e.Bcc...)
}

// EnvelopeOf parses the recipient lists of exp.
func EnvelopeOf(exp *email.Export) (Envelope, error) {
	var env Envelope
	var err error
	if env.To, err = addresses(exp.Message.Recipients); err != nil {
		return Envelope{}, fmt.Errorf("parsing To: %w", err)
	}
	if env.Cc, err = addresses(exp.Message.Cc); err != nil {
		return Envelope{}, fmt.Errorf("parsing Cc: %w", err)
	}
	if env.Bcc, err = BccOf(exp); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// BccOf returns the blind-copy addresses of exp. Display names are dropped
// and anything that is not an address list is an error, so the result can
// be written into a header.
func BccOf(exp *email.Export) ([]string, error) {
	bcc, err := addresses(exp.Bcc)
	if err != nil {
		return nil, fmt.Errorf("parsing Bcc: %w", err)
	}
	return bcc, nil
}

func addresses(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parsed, err := mail.ParseAddressList(list)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(parsed))
	for _, a := range parsed {
		out = append(out, a.Address)
	}
	return out, nil
}
