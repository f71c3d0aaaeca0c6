package organizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diligence/internal/adapters/ai"
	"diligence/internal/adapters/config"
	"diligence/internal/agents"
	"diligence/internal/domain/report"
	"diligence/pkg/errors"
	"diligence/pkg/templates"
)

// scriptedProvider returns queued responses in order, then repeats the last.
type scriptedProvider struct {
	responses []scriptedResponse
	calls     int
	prompts   []string
}

type scriptedResponse struct {
	text string
	err  error
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) GetModel(_ context.Context, model string) (ai.ModelInfo, error) {
	return ai.ModelInfo{Name: model}, nil
}

func (s *scriptedProvider) ListModels(_ context.Context) ([]ai.ModelInfo, error) { return nil, nil }

func (s *scriptedProvider) SupportsStructuredOutput() bool { return true }

func (s *scriptedProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	s.prompts = append(s.prompts, req.Messages[len(req.Messages)-1].Content)

	r := s.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &ai.ChatResponse{
		Choices: []ai.Choice{{Message: ai.Message{Role: ai.RoleAssistant, Content: r.text}}},
	}, nil
}

func newService(t *testing.T, provider ai.ChatProvider, maxIterations int) *Service {
	t.Helper()
	gen := agents.NewGenerator(provider, config.AIConfig{Model: "gpt-4o-mini"})
	return NewService(gen, templates.Get(), maxIterations)
}

const organizedJSON = `{"data":{"funding":"$10M Series A","team":"12 people"}}`

func TestOrganize_AcceptedFirstIteration(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: organizedJSON},
		{text: `{"feedback":"complete and faithful","is_acceptable":true}`},
	}}

	svc := newService(t, provider, 3)

	result, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, "$10M Series A", result.Data.Data["funding"])
	assert.Equal(t, 2, provider.calls)
}

func TestOrganize_FeedbackDrivesSecondIteration(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"data":{"funding":"$10M"}}`},
		{text: `{"feedback":"missing team details","is_acceptable":false}`},
		{text: organizedJSON},
		{text: `{"feedback":"good now","is_acceptable":true}`},
	}}

	svc := newService(t, provider, 3)

	result, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, 2, result.Iterations)

	// Second organize prompt carries the rejection feedback and prior output
	require.Len(t, provider.prompts, 4)
	assert.Contains(t, provider.prompts[2], "missing team details")
	assert.Contains(t, provider.prompts[2], `{"data":{"funding":"$10M"}}`)
}

func TestOrganize_BudgetExhaustedReturnsLastOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"data":{"funding":"$10M"}}`},
		{text: `{"feedback":"not enough","is_acceptable":false}`},
		{text: organizedJSON},
		{text: `{"feedback":"still not enough","is_acceptable":false}`},
	}}

	svc := newService(t, provider, 2)

	result, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, "still not enough", result.LastFeedback)
	assert.Equal(t, "$10M Series A", result.Data.Data["funding"])
	assert.Equal(t, "12 people", result.Data.Data["team"])
}

func TestOrganize_EmptyLaterPassKeepsEarlierData(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: organizedJSON},
		{text: `{"feedback":"needs sources","is_acceptable":false}`},
		{text: `{"data":{}}`},
		{text: `{"feedback":"nothing to grade","is_acceptable":false}`},
	}}

	svc := newService(t, provider, 2)

	result, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	assert.False(t, result.Data.Empty())
	assert.Equal(t, "$10M Series A", result.Data.Data["funding"])
	assert.Equal(t, organizedJSON, result.RawData)
}

func TestOrganize_QualityCheckErrorCountsAsRejection(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: organizedJSON},
		{err: errors.New("model unavailable")},
		{text: organizedJSON},
		{text: `{"feedback":"fine","is_acceptable":true}`},
	}}

	svc := newService(t, provider, 3)

	result, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, 2, result.Iterations)
}

func TestOrganize_MalformedOrganizeOutputIsFatal(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: "I could not structure this content."},
	}}

	svc := newService(t, provider, 3)

	_, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtractionFailed))
}

func TestOrganize_MalformedQualityCheckCountsAsRejection(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: organizedJSON},
		{text: "no verdict"},
		{text: organizedJSON},
		{text: `{"feedback":"fine","is_acceptable":true}`},
	}}

	svc := newService(t, provider, 3)

	result, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, 2, result.Iterations)
}

func TestOrganize_OrganizeGenerationErrorIsFatal(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{err: errors.New("model unavailable")},
	}}

	svc := newService(t, provider, 3)

	_, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGenerationFailed))
}

func TestOrganize_StringBooleanAccepted(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: organizedJSON},
		{text: `{"feedback":"fine","is_acceptable":"true"}`},
	}}

	svc := newService(t, provider, 3)

	result, err := svc.Organize(context.Background(), "Acme", "raw notes", "2026-08-29")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestMarshalData(t *testing.T) {
	assert.Equal(t, "{}", MarshalData(report.OrganizedData{}))

	out := MarshalData(report.OrganizedData{Data: map[string]interface{}{"k": "v"}})
	assert.Contains(t, out, `"k": "v"`)
}
