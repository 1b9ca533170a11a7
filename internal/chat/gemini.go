package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/codinggeeks/api/internal/apperror"
)

const DefaultModel = "gemini-flash-latest"

// Gemini calls the Gemini API generateContent method through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ Generator = (*Gemini)(nil)

// GeminiOption adjusts the SDK client configuration.
type GeminiOption func(*genai.ClientConfig)

// WithBaseURL sends requests to url instead of the public Gemini API.
func WithBaseURL(url string) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// NewGemini authenticates with an API key.
func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("chat: gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("chat: creating gemini client: %w", err)
	}

	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Generate sends the whole conversation and returns the first text part of
// the first candidate, or DefaultReply if there is none. Any failure talking
// to the API is apperror.ErrUpstream.
func (g *Gemini) Generate(ctx context.Context, messages []Message) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		contents = append(contents, &genai.Content{
			Role:  modelRole(m.Role),
			Parts: []*genai.Part{{Text: m.Text}},
		})
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		g.logger.Error("gemini request failed",
			slog.String("model", g.model),
			slog.Int("turns", len(messages)),
			slog.String("error", err.Error()),
		)
		return "", apperror.Upstream("Gemini", err)
	}

	return firstText(resp), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return DefaultReply
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return DefaultReply
	}
	for _, p := range c.Content.Parts {
		if p != nil && strings.TrimSpace(p.Text) != "" {
			return p.Text
		}
	}
	return DefaultReply
}
