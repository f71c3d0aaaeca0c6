package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"diligence/internal/adapters/config"
	"diligence/internal/adapters/serper"
	"diligence/internal/agents"
	"diligence/internal/agents/schemas"
	"diligence/internal/domain/report"
	"diligence/internal/metrics"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
	"diligence/pkg/templates"
)

const researchSystemPrompt = "You are a diligent investment research analyst."

// Searcher runs web searches and returns the raw result payload.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// FetchCache memoizes search results across runs.
type FetchCache interface {
	Get(ctx context.Context, tool, request string) (string, error)
	Set(ctx context.Context, tool, request, payload string) error
}

// Flow researches one report section: it discovers search terms, runs the
// searches, synthesizes structured section data and writes it up as markdown.
type Flow struct {
	gen                 *agents.Generator
	registry            *templates.Registry
	search              Searcher
	cache               FetchCache
	numSearchTerms      int
	numCandidateSources int
	log                 *logger.Logger
}

// NewFlow creates a research flow. search may be nil to research from the
// organized data alone, cache may be nil to disable memoization.
func NewFlow(gen *agents.Generator, registry *templates.Registry, search Searcher, cache FetchCache, cfg config.PipelineConfig) *Flow {
	numTerms := cfg.NumSearchTerms
	if numTerms < 1 {
		numTerms = 1
	}
	numSources := cfg.NumCandidateSources
	if numSources < 1 {
		numSources = 1
	}
	return &Flow{
		gen:                 gen,
		registry:            registry,
		search:              search,
		cache:               cache,
		numSearchTerms:      numTerms,
		numCandidateSources: numSources,
		log:                 logger.With("component", "research"),
	}
}

// ResearchSection produces the markdown body for one section. Search failures
// degrade to researching from organized data alone; generation failures fail
// the section.
func (f *Flow) ResearchSection(ctx context.Context, section report.Section, companyName, organizedData, currentDate string) (markdown string, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSection(section.String(), time.Since(start), err)
	}()

	schema, err := schemas.ForSection(section)
	if err != nil {
		return "", err
	}
	description := schemas.Describe(schema)

	terms := f.discover(ctx, section, companyName, description, currentDate)
	findings := f.collectFindings(ctx, section, terms)

	sectionData, err := f.synthesize(ctx, section, companyName, organizedData, findings, description, schema)
	if err != nil {
		return "", err
	}

	return f.write(ctx, section, companyName, sectionData)
}

// discover asks the model for search terms. Any failure falls back to a
// single generic query so the flow keeps going.
func (f *Flow) discover(ctx context.Context, section report.Section, companyName, description, currentDate string) []string {
	fallback := []string{fmt.Sprintf("%s %s", companyName, section)}

	prompt, err := f.registry.Render("research/discover", map[string]any{
		"Section":           section.String(),
		"Company":           companyName,
		"SchemaDescription": description,
		"CurrentDate":       currentDate,
		"NumSearchTerms":    f.numSearchTerms,
	})
	if err != nil {
		f.log.Warnw("render discover prompt failed", "section", section, "error", err)
		return fallback
	}

	var terms schemas.SearchTerms
	if err := f.gen.GenerateStructured(ctx, researchSystemPrompt, prompt, schemas.SearchTermsSchema, &terms, agents.PolicyLenient); err != nil {
		f.log.Warnw("search term discovery failed", "section", section, "error", err)
		return fallback
	}
	if len(terms.SearchTerms) == 0 {
		return fallback
	}
	if len(terms.SearchTerms) > f.numSearchTerms {
		terms.SearchTerms = terms.SearchTerms[:f.numSearchTerms]
	}
	return terms.SearchTerms
}

// collectFindings runs every search term and renders the organic results as a
// numbered list, capped at numCandidateSources entries. A failed search is
// logged and skipped.
func (f *Flow) collectFindings(ctx context.Context, section report.Section, terms []string) string {
	if f.search == nil {
		return "No web search results were available."
	}

	var sb strings.Builder
	count := 0
	for _, term := range terms {
		if count >= f.numCandidateSources {
			break
		}

		payload, err := f.cachedSearch(ctx, term)
		if err != nil {
			f.log.Warnw("web search failed", "section", section, "query", term, "error", err)
			continue
		}

		parsed, err := serper.ParseSearch(payload)
		if err != nil {
			f.log.Warnw("unparseable search payload", "section", section, "query", term, "error", err)
			continue
		}

		for _, r := range parsed.Organic {
			if count >= f.numCandidateSources {
				break
			}
			count++
			fmt.Fprintf(&sb, "[%d] %s\nURL: %s\n%s\n\n", count, r.Title, r.Link, r.Snippet)
		}
	}

	if count == 0 {
		return "No web search results were available."
	}
	f.log.Infow("collected search findings", "section", section, "terms", len(terms), "results", count)
	return strings.TrimSpace(sb.String())
}

func (f *Flow) cachedSearch(ctx context.Context, query string) (string, error) {
	if f.cache != nil {
		if payload, err := f.cache.Get(ctx, serper.ToolSearch, query); err == nil {
			metrics.RecordCacheHit(serper.ToolSearch, true)
			return payload, nil
		}
		metrics.RecordCacheHit(serper.ToolSearch, false)
	}

	payload, err := f.search.Search(ctx, query)
	if err != nil {
		return "", err
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, serper.ToolSearch, query, payload); err != nil {
			f.log.Warnw("failed to cache search result", "query", query, "error", err)
		}
	}
	return payload, nil
}

// synthesize turns organized data plus search findings into the section's
// structured JSON.
func (f *Flow) synthesize(ctx context.Context, section report.Section, companyName, organizedData, findings, description string, schema *genai.Schema) (string, error) {
	prompt, err := f.registry.Render("research/synthesize", map[string]any{
		"Section":           section.String(),
		"Company":           companyName,
		"OrganizedData":     organizedData,
		"SearchFindings":    findings,
		"SchemaDescription": description,
	})
	if err != nil {
		return "", errors.Wrap(err, "render synthesize prompt")
	}

	raw, err := f.gen.Generate(ctx, researchSystemPrompt, prompt, schema)
	if err != nil {
		return "", errors.Wrapf(err, "synthesize %s", section)
	}
	return agents.CleanJSON(raw), nil
}

// write renders the structured section data as markdown.
func (f *Flow) write(ctx context.Context, section report.Section, companyName, sectionData string) (string, error) {
	prompt, err := f.registry.Render("research/write_section", map[string]any{
		"Section":     section.String(),
		"Company":     companyName,
		"SectionData": sectionData,
	})
	if err != nil {
		return "", errors.Wrap(err, "render section prompt")
	}

	raw, err := f.gen.Generate(ctx, researchSystemPrompt, prompt, nil)
	if err != nil {
		return "", errors.Wrapf(err, "write %s", section)
	}
	return agents.CleanMarkdown(raw), nil
}
