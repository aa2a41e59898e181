package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shineum/eml-studio/internal/config"
	"github.com/shineum/eml-studio/internal/provider"
	"github.com/shineum/eml-studio/internal/provider/graph"
	"github.com/shineum/eml-studio/internal/provider/ses"
	"github.com/shineum/eml-studio/internal/provider/stdout"
	"github.com/shineum/eml-studio/internal/rewrite"
)

// selectProvider chooses the email delivery backend based on configuration.
// An explicit PROVIDER wins. Otherwise Graph is used if configured, then SES,
// then stdout.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "ses":
		if !cfg.SESConfigured() {
			return nil, fmt.Errorf("SES provider selected but SES_REGION and SES_SENDER are required")
		}
		return newSES(ctx, cfg)

	case "graph":
		if !cfg.GraphConfigured() {
			return nil, fmt.Errorf("graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, and GRAPH_SENDER are required")
		}
		return newGraph(cfg), nil

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), nil

	case "":
		if cfg.GraphConfigured() {
			return newGraph(cfg), nil
		}
		if cfg.SESConfigured() {
			return newSES(ctx, cfg)
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newSES(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	slog.Info("using AWS SES provider",
		"region", cfg.SES.Region,
		"sender", cfg.SES.Sender,
	)
	p, err := ses.New(ctx, ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SES provider: %w", err)
	}
	return p, nil
}

func newGraph(cfg *config.Config) provider.Provider {
	slog.Info("using Microsoft Graph provider",
		"sender", cfg.Graph.Sender,
	)
	return graph.New(graph.GraphProviderConfig{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		Sender:       cfg.Graph.Sender,
	})
}

// selectRewriter builds the rewrite backend. It returns nil without an error
// when no AI key is configured.
func selectRewriter(ctx context.Context, cfg *config.Config) (rewrite.Rewriter, error) {
	switch name := cfg.AIProvider(); name {
	case "gemini":
		r, err := rewrite.NewGemini(ctx, cfg.AI.GeminiAPIKey,
			rewrite.WithGeminiModel(cfg.AI.Model),
			rewrite.WithGeminiBaseURL(cfg.AI.BaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini rewriter: %w", err)
		}
		slog.Info("using Gemini rewriter")
		return r, nil

	case "openai":
		r, err := rewrite.NewOpenAI(cfg.AI.OpenAIAPIKey,
			rewrite.WithOpenAIModel(cfg.AI.Model),
			rewrite.WithOpenAIBaseURL(cfg.AI.BaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI rewriter: %w", err)
		}
		slog.Info("using OpenAI rewriter")
		return r, nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", name)
	}
}
