package rewrite

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini rewrites text with Google's Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	baseURL string
}

// GeminiOption is a functional option for configuring Gemini.
type GeminiOption func(*Gemini)

// WithGeminiModel sets the model to use.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGeminiBaseURL points the client at a different API endpoint, such as a
// proxy. Empty keeps the default.
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(g *Gemini) {
		g.baseURL = baseURL
	}
}

// NewGemini creates a Gemini rewriter authenticated with an API key.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	g := &Gemini{model: DefaultGeminiModel}
	for _, opt := range opts {
		opt(g)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

// Stream implements Rewriter.
func (g *Gemini) Stream(ctx context.Context, action Action, text string, fn ChunkFunc) error {
	return run(ctx, g.generate, action, text, fn)
}

func (g *Gemini) generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), nil) {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}
