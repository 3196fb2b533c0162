package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // optional, for OpenAI-compatible gateways
	MaxTokens   int
	Temperature float64
}

// OpenAIGenerator talks to the OpenAI chat completions API through langchaingo.
type OpenAIGenerator struct {
	llm         llms.Model
	maxTokens   int
	temperature float64
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return &OpenAIGenerator{
		llm:         llm,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, system, message string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, message),
	}
	resp, err := g.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(g.maxTokens),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		return "", &ProviderError{Provider: g.Name(), Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: g.Name(), Err: ErrEmptyCompletion}
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", &ProviderError{Provider: g.Name(), Err: ErrEmptyCompletion}
	}
	return text, nil
}
