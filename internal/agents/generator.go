package agents

import (
	"context"
	"time"

	"google.golang.org/genai"

	"diligence/internal/adapters/ai"
	"diligence/internal/adapters/config"
	"diligence/internal/metrics"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
)

// Generator runs prompts against a chat provider and handles structured
// output plumbing. All pipeline steps go through it so retries, metrics and
// extraction behave the same everywhere.
type Generator struct {
	provider    ai.ChatProvider
	model       string
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

// NewGenerator creates a generator bound to one provider and model.
func NewGenerator(provider ai.ChatProvider, cfg config.AIConfig) *Generator {
	return &Generator{
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         logger.With("component", "generator", "provider", provider.Name()),
	}
}

// Generate runs a prompt and returns the raw text response. When schema is
// non-nil and the provider supports it, the response is constrained
// server-side.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema) (string, error) {
	req := ai.ChatRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}

	if systemPrompt != "" {
		req.Messages = append(req.Messages, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})
	}
	req.Messages = append(req.Messages, ai.Message{Role: ai.RoleUser, Content: userPrompt})

	if schema != nil && g.provider.SupportsStructuredOutput() {
		req.ResponseSchema = schema
	}

	start := time.Now()
	resp, err := g.provider.Chat(ctx, req)
	latency := time.Since(start)

	if err != nil {
		metrics.RecordGeneration(g.provider.Name(), g.model, latency, 0, 0, err)
		g.log.Warnw("generation failed", "model", g.model, "latency", latency, "error", err)
		return "", errors.Wrapf(errors.ErrGenerationFailed, "chat completion with %s: %v", g.model, err)
	}

	metrics.RecordGeneration(g.provider.Name(), g.model, latency,
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil)
	g.log.Debugw("generation completed",
		"model", g.model,
		"latency", latency,
		"tokens", resp.Usage.TotalTokens)

	return resp.Text(), nil
}

// GenerateStructured runs a prompt and parses the response into dest.
func (g *Generator) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema, dest interface{}, policy ExtractionPolicy) error {
	raw, err := g.Generate(ctx, systemPrompt, userPrompt, schema)
	if err != nil {
		return err
	}
	return ExtractInto(raw, dest, policy)
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}
