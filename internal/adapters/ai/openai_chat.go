package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"diligence/pkg/errors"
)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// Ensure OpenAIProvider implements ChatProvider
var _ ChatProvider = (*OpenAIProvider)(nil)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string                 `json:"type"`
	JSONSchema map[string]interface{} `json:"json_schema,omitempty"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat sends a chat completion request to OpenAI API.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key not configured")
	}

	// Wait for rate limiter
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{
			Provider: ProviderNameOpenAI,
			Limit:    p.rateLimiter.Limit(),
			Err:      err,
		}
	}

	openAIReq := openAIRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if openAIReq.MaxTokens == 0 {
		openAIReq.MaxTokens = 4096
	}

	for _, msg := range req.Messages {
		openAIReq.Messages = append(openAIReq.Messages, openAIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	if req.ResponseSchema != nil {
		openAIReq.ResponseFormat = &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: map[string]interface{}{
				"name":   "response",
				"schema": schemaToJSONSchema(req.ResponseSchema),
			},
		}
	}

	body, err := json.Marshal(openAIReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal openai request")
	}

	url := p.baseURL
	if url == "" {
		url = openaiAPIURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	client := &http.Client{Timeout: p.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "send openai request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read openai response")
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, errors.Wrapf(errors.ErrExternal, "openai API error (%d): %s - %s",
				resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrExternal, "openai API error (%d): %s",
			resp.StatusCode, string(respBody))
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return nil, errors.Wrap(err, "unmarshal openai response")
	}

	chatResp := &ChatResponse{
		ID:    openAIResp.ID,
		Model: openAIResp.Model,
		Usage: Usage{
			PromptTokens:     openAIResp.Usage.PromptTokens,
			CompletionTokens: openAIResp.Usage.CompletionTokens,
			TotalTokens:      openAIResp.Usage.TotalTokens,
		},
	}

	for _, choice := range openAIResp.Choices {
		finishReason := FinishReasonStop
		switch choice.FinishReason {
		case "length":
			finishReason = FinishReasonLength
		}

		chatResp.Choices = append(chatResp.Choices, Choice{
			Index: choice.Index,
			Message: Message{
				Role:    MessageRole(choice.Message.Role),
				Content: choice.Message.Content,
			},
			FinishReason: finishReason,
		})
	}

	return chatResp, nil
}

// schemaToJSONSchema converts a genai schema to the plain JSON-schema maps the
// OpenAI response_format field expects.
func schemaToJSONSchema(s *genai.Schema) map[string]interface{} {
	if s == nil {
		return nil
	}

	out := map[string]interface{}{}
	if s.Type != "" {
		out["type"] = strings.ToLower(string(s.Type))
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = schemaToJSONSchema(prop)
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = schemaToJSONSchema(s.Items)
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}
