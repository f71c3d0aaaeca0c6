package organizer

import (
	"context"
	"encoding/json"
	"fmt"

	"diligence/internal/agents"
	"diligence/internal/agents/schemas"
	"diligence/internal/domain/report"
	"diligence/internal/metrics"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
	"diligence/pkg/templates"
)

// Result is the outcome of the organize loop.
type Result struct {
	Data         report.OrganizedData
	RawData      string
	Iterations   int
	Accepted     bool
	LastFeedback string
}

// Service runs the iterative organize and quality-check loop over raw source
// content.
type Service struct {
	gen           *agents.Generator
	registry      *templates.Registry
	maxIterations int
	log           *logger.Logger
}

// NewService creates the organizer service.
func NewService(gen *agents.Generator, registry *templates.Registry, maxIterations int) *Service {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Service{
		gen:           gen,
		registry:      registry,
		maxIterations: maxIterations,
		log:           logger.With("component", "organizer"),
	}
}

// Organize repeatedly structures the source content and grades the result
// until the quality check accepts it or the iteration budget runs out. The
// last organized output is returned either way; Accepted reports whether the
// quality check ever passed.
func (s *Service) Organize(ctx context.Context, companyName, sourceContent, currentDate string) (*Result, error) {
	result := &Result{}

	var feedback, prevOutput string
	for result.Iterations < s.maxIterations && !result.Accepted {
		result.Iterations++
		s.log.Infow("organize iteration",
			"company", companyName,
			"iteration", result.Iterations,
			"max_iterations", s.maxIterations)

		prompt, err := s.registry.Render("report/organize", map[string]any{
			"CompanyName":    companyName,
			"SourceContent":  sourceContent,
			"CurrentDate":    currentDate,
			"PreviousOutput": prevOutput,
			"Feedback":       feedback,
		})
		if err != nil {
			return nil, errors.Wrap(err, "render organize prompt")
		}

		raw, err := s.gen.Generate(ctx, organizerSystemPrompt, prompt, schemas.OrganizedDataSchema)
		if err != nil {
			metrics.RecordOrganizer(result.Iterations, false)
			return nil, err
		}

		var organized report.OrganizedData
		if err := agents.ExtractInto(raw, &organized, agents.PolicyStrict); err != nil {
			metrics.RecordOrganizer(result.Iterations, false)
			return nil, err
		}
		// A later pass that organizes to nothing must not discard data an
		// earlier pass already produced.
		if !organized.Empty() || result.Data.Empty() {
			result.Data = organized
			result.RawData = raw
		}

		fb := s.checkQuality(ctx, companyName, sourceContent, raw)
		result.LastFeedback = fb.Feedback
		result.Accepted = fb.IsAcceptable.Bool()

		if !result.Accepted {
			feedback = fb.Feedback
			prevOutput = raw
			s.log.Infow("quality check rejected output",
				"company", companyName,
				"iteration", result.Iterations,
				"feedback", truncate(fb.Feedback, 120))
		}
	}

	metrics.RecordOrganizer(result.Iterations, result.Accepted)
	if result.Accepted {
		s.log.Infow("quality check passed", "company", companyName, "iterations", result.Iterations)
	} else {
		s.log.Warnw("iteration budget exhausted, using last output",
			"company", companyName,
			"iterations", result.Iterations)
	}

	return result, nil
}

// checkQuality grades organized output against the raw source content. A
// generation failure is treated as a rejection so the loop keeps iterating
// instead of aborting the run.
func (s *Service) checkQuality(ctx context.Context, companyName, sourceContent, organized string) report.OrganizerFeedback {
	prompt, err := s.registry.Render("report/quality_check", map[string]any{
		"CompanyName":   companyName,
		"SourceContent": sourceContent,
		"OrganizedData": organized,
	})
	if err != nil {
		return rejection(fmt.Sprintf("quality check unavailable: %v", err))
	}

	raw, err := s.gen.Generate(ctx, organizerSystemPrompt, prompt, schemas.OrganizerFeedbackSchema)
	if err != nil {
		s.log.Warnw("quality check generation failed", "company", companyName, "error", err)
		return rejection(fmt.Sprintf("quality check failed: %v", err))
	}

	var fb report.OrganizerFeedback
	if err := agents.ExtractInto(raw, &fb, agents.PolicyStrict); err != nil {
		s.log.Warnw("quality check output unparseable", "company", companyName, "error", err)
		return rejection(fmt.Sprintf("quality check returned unparseable feedback: %v", err))
	}
	if fb.Feedback == "" && !fb.IsAcceptable.Bool() {
		return rejection("quality check returned no usable feedback")
	}

	return fb
}

const organizerSystemPrompt = "You are an excellent data organizer with strong attention to detail."

func rejection(reason string) report.OrganizerFeedback {
	return report.OrganizerFeedback{Feedback: reason}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MarshalData renders organized data for embedding in downstream prompts.
func MarshalData(data report.OrganizedData) string {
	if data.Empty() {
		return "{}"
	}
	out, err := json.MarshalIndent(data.Data, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}
