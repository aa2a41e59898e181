// Package stdout implements a Provider that prints serialized emails to
// standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/eml-studio/internal/email"
	"github.com/shineum/eml-studio/internal/provider"
)

const separator = "========================================\n"

// Provider prints serialized messages framed by separator lines.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send writes a short summary line followed by the raw document.
func (p *Provider) Send(_ context.Context, exp *email.Export) error {
	bcc, err := provider.BccOf(exp)
	if err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(separator)
	b.WriteString(fmt.Sprintf("File: %s (%s)\n", exp.Filename, formatSize(len(exp.Data))))
	if len(bcc) > 0 {
		b.WriteString(fmt.Sprintf("Bcc: %s\n", strings.Join(bcc, ", ")))
	}
	b.WriteString(separator)
	b.Write(exp.Data)
	if !strings.HasSuffix(string(exp.Data), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(separator)

	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return fmt.Errorf("writing %s: %w", exp.Filename, err)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
