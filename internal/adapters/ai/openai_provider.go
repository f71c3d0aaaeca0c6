package ai

import (
	"context"
	"strings"
	"time"

	"diligence/pkg/errors"
)

// OpenAIProvider implements chat completions over the OpenAI HTTP API.
type OpenAIProvider struct {
	apiKey      string
	baseURL     string // Overridable in tests; empty means the public endpoint
	timeout     time.Duration
	rateLimiter RateLimiter
	models      []ModelInfo
}

// NewOpenAIProvider creates a new OpenAI provider instance.
func NewOpenAIProvider(apiKey string, timeout time.Duration, limiter RateLimiter) *OpenAIProvider {
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}
	return &OpenAIProvider{apiKey: apiKey, timeout: timeout, rateLimiter: limiter, models: openAIModels()}
}

// Name returns provider name.
func (p *OpenAIProvider) Name() string { return ProviderNameOpenAI.String() }

// GetModel returns model info by name.
func (p *OpenAIProvider) GetModel(_ context.Context, model string) (ModelInfo, error) {
	for _, m := range p.models {
		if strings.EqualFold(m.Name, model) {
			return m, nil
		}
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "openai model %s not found", model)
}

// ListModels lists available models.
func (p *OpenAIProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return p.models, nil
}

// SupportsStructuredOutput indicates structured output support.
func (p *OpenAIProvider) SupportsStructuredOutput() bool { return true }

func openAIModels() []ModelInfo {
	return []ModelInfo{
		{
			Provider:        ProviderNameOpenAI,
			Name:            "gpt-4o-mini",
			Family:          "gpt-4o",
			MaxTokens:       128000,
			InputCostPer1K:  0.00015,
			OutputCostPer1K: 0.0006,
			SupportsSchemas: true,
		},
		{
			Provider:        ProviderNameOpenAI,
			Name:            "gpt-4o",
			Family:          "gpt-4o",
			MaxTokens:       128000,
			InputCostPer1K:  0.0025,
			OutputCostPer1K: 0.01,
			SupportsSchemas: true,
		},
		{
			Provider:        ProviderNameOpenAI,
			Name:            "o1-mini",
			Family:          "o1",
			MaxTokens:       65536,
			InputCostPer1K:  0.008,
			OutputCostPer1K: 0.008,
			SupportsSchemas: false,
		},
	}
}
