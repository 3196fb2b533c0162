package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshRaj112/mindcare-backend/internal/config"
)

// SystemPrompt is the persona every provider is primed with.
const SystemPrompt = `You are a compassionate AI mental health assistant for MindCare. Your role is to:
1. Provide emotional support and validation
2. Offer practical coping strategies
3. Encourage professional help when needed
4. Maintain a warm, empathetic tone
5. Never provide medical diagnoses
6. Focus on mindfulness, self-care, and positive psychology

Always remember:
- Listen actively and validate feelings
- Provide hope and encouragement
- Suggest healthy coping mechanisms
- Know your limitations and refer to professionals when appropriate`

// Generator produces a reply from an external text-generation provider.
type Generator interface {
	Generate(ctx context.Context, system, message string) (string, error)
	// Name labels the provider in logs and metrics.
	Name() string
}

// ErrEmptyCompletion is returned when a provider answers with no usable text.
var ErrEmptyCompletion = errors.New("empty completion")

// ProviderError wraps any failure from a Generator.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewGenerator builds the generator selected by cfg.Provider. It returns
// (nil, nil) when the provider has no credential, which means the service
// runs on fallback templates only.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	switch cfg.Provider {
	case config.ProviderArk:
		gen, err := NewArkGenerator(ctx, ArkConfig{
			APIKey:      cfg.ArkAPIKey,
			Model:       cfg.ArkModel,
			BaseURL:     cfg.ArkBaseURL,
			Region:      cfg.ArkRegion,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		gen, err := NewOpenAIGenerator(OpenAIConfig{
			APIKey:      cfg.OpenAIKey,
			Model:       cfg.OpenAIModel,
			BaseURL:     cfg.OpenAIBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}
