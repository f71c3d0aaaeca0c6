package ai

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"diligence/pkg/errors"
)

// GoogleProvider implements chat completions over the Gemini API.
type GoogleProvider struct {
	client      *genai.Client
	rateLimiter RateLimiter
	models      []ModelInfo
}

// NewGoogleProvider creates a new Gemini provider instance.
func NewGoogleProvider(ctx context.Context, apiKey string, limiter RateLimiter) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key not configured")
	}
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GoogleProvider{client: client, rateLimiter: limiter, models: googleModels()}, nil
}

// Name returns provider name.
func (p *GoogleProvider) Name() string { return ProviderNameGoogle.String() }

// GetModel returns model info by name.
func (p *GoogleProvider) GetModel(_ context.Context, model string) (ModelInfo, error) {
	for _, m := range p.models {
		if strings.EqualFold(m.Name, model) {
			return m, nil
		}
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "gemini model %s not found", model)
}

// ListModels lists available models.
func (p *GoogleProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return p.models, nil
}

// SupportsStructuredOutput indicates structured output support.
func (p *GoogleProvider) SupportsStructuredOutput() bool { return true }

func googleModels() []ModelInfo {
	return []ModelInfo{
		{
			Provider:        ProviderNameGoogle,
			Name:            "gemini-2.0-flash",
			Family:          "gemini-2.0",
			MaxTokens:       1048576,
			InputCostPer1K:  0.0001,
			OutputCostPer1K: 0.0004,
			SupportsSchemas: true,
		},
		{
			Provider:        ProviderNameGoogle,
			Name:            "gemini-1.5-pro",
			Family:          "gemini-1.5",
			MaxTokens:       2097152,
			InputCostPer1K:  0.00125,
			OutputCostPer1K: 0.005,
			SupportsSchemas: true,
		},
	}
}
