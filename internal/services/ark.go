package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type ArkConfig struct {
	APIKey      string
	Model       string // endpoint id, e.g. ep-2024...
	BaseURL     string
	Region      string
	MaxTokens   int
	Temperature float64
}

// ArkGenerator uses a Volcengine Ark chat model via eino.
type ArkGenerator struct {
	chatModel model.BaseChatModel
}

func NewArkGenerator(ctx context.Context, cfg ArkConfig) (*ArkGenerator, error) {
	var maxTokens *int
	if cfg.MaxTokens > 0 {
		val := cfg.MaxTokens
		maxTokens = &val
	}
	temperature := float32(cfg.Temperature)

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Ark chat model: %w", err)
	}
	return NewArkGeneratorWithModel(chatModel), nil
}

// NewArkGeneratorWithModel wraps an already built eino chat model.
func NewArkGeneratorWithModel(chatModel model.BaseChatModel) *ArkGenerator {
	return &ArkGenerator{chatModel: chatModel}
}

func (g *ArkGenerator) Name() string { return "ark" }

func (g *ArkGenerator) Generate(ctx context.Context, system, message string) (string, error) {
	msg, err := g.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(message),
	})
	if err != nil {
		return "", &ProviderError{Provider: g.Name(), Err: err}
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", &ProviderError{Provider: g.Name(), Err: ErrEmptyCompletion}
	}
	return strings.TrimSpace(msg.Content), nil
}
