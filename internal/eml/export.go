package eml

import (
	"errors"
	"fmt"

	"github.com/shineum/eml-studio/internal/email"
)

// ErrNilTemplate is returned when Export is called without a template.
var ErrNilTemplate = errors.New("eml: template is nil")

// Export resolves t with values and serializes the result.
func (s *Serializer) Export(t *email.Template, values map[string]string) (*email.Export, error) {
	if t == nil {
		return nil, ErrNilTemplate
	}

	msg := t.Resolve(values)
	doc, err := s.Serialize(msg)
	if err != nil {
		return nil, fmt.Errorf("serializing template %q: %w", t.Name, err)
	}

	return &email.Export{
		Filename: t.Filename(),
		Data:     []byte(doc),
		Message:  msg,
		Bcc:      t.ResolveBcc(values),
	}, nil
}

// Export resolves and serializes t with the default Serializer.
func Export(t *email.Template, values map[string]string) (*email.Export, error) {
	return defaultSerializer.Export(t, values)
}
