package ai

import (
	"context"

	"google.golang.org/genai"

	"diligence/pkg/errors"
)

// Ensure GoogleProvider implements ChatProvider
var _ ChatProvider = (*GoogleProvider)(nil)

// Chat sends a generation request to the Gemini API.
func (p *GoogleProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{
			Provider: ProviderNameGoogle,
			Limit:    p.rateLimiter.Limit(),
			Err:      err,
		}
	}

	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = req.ResponseSchema
	}

	// Gemini has no separate system role per message, system prompts go into
	// the config's system instruction.
	var contents []*genai.Content
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	result, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "gemini generate content: %v", err)
	}

	resp := &ChatResponse{Model: req.Model}
	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	for i, cand := range result.Candidates {
		finishReason := FinishReasonStop
		if cand.FinishReason == genai.FinishReasonMaxTokens {
			finishReason = FinishReasonLength
		}

		var text string
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				text += part.Text
			}
		}

		resp.Choices = append(resp.Choices, Choice{
			Index:        i,
			Message:      Message{Role: RoleAssistant, Content: text},
			FinishReason: finishReason,
		})
	}

	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrExternal, "gemini returned no candidates")
	}

	return resp, nil
}
