package report

import (
	"context"

	"diligence/internal/agents"
	domain "diligence/internal/domain/report"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
	"diligence/pkg/templates"
)

const assemblerSystemPrompt = "You are an excellent investment report writer."

// Assembler compiles populated section texts into one cohesive narrative and
// derives the executive summary from it. Single best-effort pass, no retry.
type Assembler struct {
	gen      *agents.Generator
	registry *templates.Registry
	log      *logger.Logger
}

// NewAssembler creates the report assembler.
func NewAssembler(gen *agents.Generator, registry *templates.Registry) *Assembler {
	return &Assembler{
		gen:      gen,
		registry: registry,
		log:      logger.With("component", "assembler"),
	}
}

// Assemble builds the final report from every section field, empty ones
// included. The model is trusted to omit empty sections gracefully.
func (a *Assembler) Assemble(ctx context.Context, companyName string, structure *domain.Structure) (string, error) {
	sections := make([]string, 0, len(domain.AllSections()))
	for _, s := range domain.AllSections() {
		content, err := structure.Field(s)
		if err != nil {
			return "", err
		}
		sections = append(sections, content)
	}

	prompt, err := a.registry.Render("report/assemble", map[string]any{
		"Company":  companyName,
		"Sections": sections,
	})
	if err != nil {
		return "", errors.Wrap(err, "render assemble prompt")
	}

	raw, err := a.gen.Generate(ctx, assemblerSystemPrompt, prompt, nil)
	if err != nil {
		return "", errors.Wrap(err, "assemble final report")
	}

	a.log.Infow("final report assembled", "company", companyName, "chars", len(raw))
	return agents.CleanMarkdown(raw), nil
}

// ExecutiveSummary condenses the final report into a one-page summary.
func (a *Assembler) ExecutiveSummary(ctx context.Context, companyName, finalReport string) (string, error) {
	prompt, err := a.registry.Render("report/executive_summary", map[string]any{
		"Company": companyName,
		"Report":  finalReport,
	})
	if err != nil {
		return "", errors.Wrap(err, "render executive summary prompt")
	}

	raw, err := a.gen.Generate(ctx, assemblerSystemPrompt, prompt, nil)
	if err != nil {
		return "", errors.Wrap(err, "executive summary")
	}
	return agents.CleanMarkdown(raw), nil
}
