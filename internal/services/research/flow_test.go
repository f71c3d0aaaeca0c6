package research

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diligence/internal/adapters/ai"
	adapterconfig "diligence/internal/adapters/config"
	"diligence/internal/agents"
	"diligence/internal/domain/report"
	"diligence/pkg/errors"
	"diligence/pkg/templates"
)

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

type fakeSearcher struct {
	payloads map[string]string
	err      error
	queries  []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) (string, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return "", f.err
	}
	if payload, ok := f.payloads[query]; ok {
		return payload, nil
	}
	return `{"organic":[]}`, nil
}

type memCache struct {
	entries map[string]string
	sets    int
}

func (m *memCache) key(tool, request string) string { return tool + ":" + request }

func (m *memCache) Get(_ context.Context, tool, request string) (string, error) {
	if payload, ok := m.entries[m.key(tool, request)]; ok {
		return payload, nil
	}
	return "", errors.ErrNotFound
}

func (m *memCache) Set(_ context.Context, tool, request, payload string) error {
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	m.entries[m.key(tool, request)] = payload
	m.sets++
	return nil
}

func newFlow(provider ai.ChatProvider, search Searcher, cache FetchCache) *Flow {
	gen := agents.NewGenerator(provider, adapterconfig.AIConfig{Model: "gpt-4o-mini"})
	return NewFlow(gen, templates.Get(), search, cache, adapterconfig.PipelineConfig{
		NumSearchTerms:      2,
		NumCandidateSources: 3,
	})
}

const serperPayload = `{"organic":[{"title":"Acme raises $10M","link":"https://news.example/acme","snippet":"Series A led by Fund."}]}`

func TestResearchSection_FullFlow(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"search_terms":["acme funding","acme product"]}`},
		{text: `{"description":"Acme makes widgets","founded_year":"2021"}`},
		{text: "## Company Overview\n\nAcme makes widgets."},
	}}
	search := &fakeSearcher{payloads: map[string]string{
		"acme funding": serperPayload,
		"acme product": serperPayload,
	}}
	cache := &memCache{}

	flow := newFlow(provider, search, cache)

	md, err := flow.ResearchSection(context.Background(), report.SectionCompanyOverview, "Acme", `{"data":{}}`, "2026-08-29")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "## Company Overview"))
	assert.Equal(t, []string{"acme funding", "acme product"}, search.queries)
	assert.Equal(t, 2, cache.sets)

	// Synthesis prompt carries the search findings
	require.Len(t, provider.prompts, 3)
	assert.Contains(t, provider.prompts[1], "Acme raises $10M")
	assert.Contains(t, provider.prompts[1], "https://news.example/acme")

	// Write prompt carries the synthesized section data
	assert.Contains(t, provider.prompts[2], "Acme makes widgets")
}

func TestResearchSection_DiscoveryFailureFallsBackToGenericQuery(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{err: errors.New("model unavailable")},
		{text: `{"description":"Acme makes widgets"}`},
		{text: "## Company Overview\n\nAcme."},
	}}
	search := &fakeSearcher{}

	flow := newFlow(provider, search, nil)

	_, err := flow.ResearchSection(context.Background(), report.SectionCompanyOverview, "Acme", "{}", "2026-08-29")
	require.NoError(t, err)

	require.Len(t, search.queries, 1)
	assert.Equal(t, "Acme Company Overview", search.queries[0])
}

func TestResearchSection_SearchFailureDegrades(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"search_terms":["acme funding"]}`},
		{text: `{"description":"Acme makes widgets"}`},
		{text: "## Company Overview\n\nAcme."},
	}}
	search := &fakeSearcher{err: errors.New("quota exceeded")}

	flow := newFlow(provider, search, nil)

	_, err := flow.ResearchSection(context.Background(), report.SectionCompanyOverview, "Acme", "{}", "2026-08-29")
	require.NoError(t, err)

	assert.Contains(t, provider.prompts[1], "No web search results were available.")
}

func TestResearchSection_NoSearcher(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"search_terms":["acme funding"]}`},
		{text: `{"description":"Acme"}`},
		{text: "## Company Overview\n\nAcme."},
	}}

	flow := newFlow(provider, nil, nil)

	_, err := flow.ResearchSection(context.Background(), report.SectionCompanyOverview, "Acme", "{}", "2026-08-29")
	require.NoError(t, err)
	assert.Contains(t, provider.prompts[1], "No web search results were available.")
}

func TestResearchSection_CacheHitSkipsSearch(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"search_terms":["acme funding"]}`},
		{text: `{"description":"Acme"}`},
		{text: "## Company Overview\n\nAcme."},
	}}
	search := &fakeSearcher{}
	cache := &memCache{entries: map[string]string{
		"serper_search:acme funding": serperPayload,
	}}

	flow := newFlow(provider, search, cache)

	_, err := flow.ResearchSection(context.Background(), report.SectionCompanyOverview, "Acme", "{}", "2026-08-29")
	require.NoError(t, err)

	assert.Empty(t, search.queries)
	assert.Contains(t, provider.prompts[1], "Acme raises $10M")
}

func TestResearchSection_SynthesisFailureFailsSection(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"search_terms":["acme funding"]}`},
		{err: errors.New("model unavailable")},
	}}

	flow := newFlow(provider, &fakeSearcher{}, nil)

	_, err := flow.ResearchSection(context.Background(), report.SectionCompanyOverview, "Acme", "{}", "2026-08-29")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGenerationFailed))
}

func TestResearchSection_UnknownSection(t *testing.T) {
	flow := newFlow(&scriptedProvider{responses: []scriptedResponse{{text: "{}"}}}, nil, nil)

	_, err := flow.ResearchSection(context.Background(), report.Section("Nonsense"), "Acme", "{}", "2026-08-29")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownSection))
}

func TestResearchSection_FindingsCappedAtCandidateLimit(t *testing.T) {
	many := `{"organic":[` +
		`{"title":"r1","link":"u1","snippet":"s1"},` +
		`{"title":"r2","link":"u2","snippet":"s2"},` +
		`{"title":"r3","link":"u3","snippet":"s3"},` +
		`{"title":"r4","link":"u4","snippet":"s4"}]}`

	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: `{"search_terms":["acme funding","acme product"]}`},
		{text: `{"description":"Acme"}`},
		{text: "## Company Overview\n\nAcme."},
	}}
	search := &fakeSearcher{payloads: map[string]string{
		"acme funding": many,
		"acme product": many,
	}}

	flow := newFlow(provider, search, nil)

	_, err := flow.ResearchSection(context.Background(), report.SectionCompanyOverview, "Acme", "{}", "2026-08-29")
	require.NoError(t, err)

	assert.Contains(t, provider.prompts[1], "[3] r3")
	assert.NotContains(t, provider.prompts[1], "[4]")
	// Only the first term is searched once the cap is reached
	assert.Equal(t, []string{"acme funding"}, search.queries)
}
