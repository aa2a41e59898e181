package rewrite

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI rewrites text with the OpenAI chat completions API.
type OpenAI struct {
	client  openai.Client
	model   string
	baseURL string
}

// OpenAIOption is a functional option for configuring OpenAI.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the model to use.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOpenAIBaseURL points the client at an OpenAI-compatible endpoint.
// Empty keeps the default.
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(o *OpenAI) {
		o.baseURL = baseURL
	}
}

// NewOpenAI creates an OpenAI rewriter. The SDK's own retries are disabled;
// a failed request surfaces as ErrUnavailable and the caller decides.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	o := &OpenAI{model: DefaultOpenAIModel}
	for _, opt := range opts {
		opt(o)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	o.client = openai.NewClient(reqOpts...)
	return o, nil
}

// Stream implements Rewriter.
func (o *OpenAI) Stream(ctx context.Context, action Action, text string, fn ChunkFunc) error {
	return run(ctx, o.generate, action, text, fn)
}

func (o *OpenAI) generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: openai.ChatModel(o.model),
		})
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("openai stream: %w", err))
		}
	}
}
