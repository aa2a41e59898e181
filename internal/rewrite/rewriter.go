// Package rewrite rewrites email bodies through a generative language model
// and streams the result back in chunks.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	// ErrInvalidAction is returned for action names other than grammar,
	// friendly and formal.
	ErrInvalidAction = errors.New("invalid rewrite action")

	// ErrEmptyText is returned when there is nothing to rewrite.
	ErrEmptyText = errors.New("text to rewrite is empty")

	// ErrUnavailable wraps failures of the upstream model service.
	ErrUnavailable = errors.New("rewrite service unavailable")

	// ErrInvalidAPIKey is returned when a backend is built without credentials.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// ChunkFunc receives rewritten text in production order. Returning an error
// stops the stream; the error is passed back to the caller of Stream.
type ChunkFunc func(chunk string) error

// Rewriter streams a rewritten version of text.
type Rewriter interface {
	Stream(ctx context.Context, action Action, text string, fn ChunkFunc) error
}

// Transform runs r to completion and returns the concatenated result.
func Transform(ctx context.Context, r Rewriter, action Action, text string) (string, error) {
	var b strings.Builder
	err := r.Stream(ctx, action, text, func(chunk string) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// prepare validates the request shared by every backend and builds the prompt.
func prepare(action Action, text string) (string, error) {
	prompt, err := Prompt(action, text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return prompt, nil
}

// source produces raw model output for a prompt.
type source func(ctx context.Context, prompt string) iter.Seq2[string, error]

// run drives src for one request. Upstream failures are wrapped with
// ErrUnavailable; an error from fn is returned as is.
func run(ctx context.Context, src source, action Action, text string, fn ChunkFunc) error {
	prompt, err := prepare(action, text)
	if err != nil {
		return err
	}

	for chunk, err := range src(ctx, prompt) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if chunk == "" {
			continue
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return ctx.Err()
}
