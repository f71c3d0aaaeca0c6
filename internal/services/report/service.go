package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"diligence/internal/domain/company"
	domain "diligence/internal/domain/report"
	"diligence/internal/metrics"
	"diligence/internal/services/ingest"
	"diligence/internal/services/organizer"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
)

// Collector bundles raw source content for a company profile.
type Collector interface {
	Collect(ctx context.Context, profile *company.Profile) string
}

// Organizer structures raw source content through the validate loop.
type Organizer interface {
	Organize(ctx context.Context, companyName, sourceContent, currentDate string) (*organizer.Result, error)
}

// RunStore persists run history. A nil store disables persistence.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Complete(ctx context.Context, id uuid.UUID, status domain.RunStatus, iterations int, reportPath string) error
	AddSection(ctx context.Context, rec *domain.SectionRecord) error
}

// Result is the outcome of one full report generation.
type Result struct {
	CompanyName         string
	FinalReport         string
	ExecutiveSummary    string
	ReportPath          string
	Sections            []SectionOutcome
	OrganizerIterations int
	OrganizerAccepted   bool
}

// Service drives the full pipeline: read profile, collect sources, organize,
// research sections in batches, assemble and write the report.
type Service struct {
	reader    *ingest.Reader
	collector Collector
	organizer Organizer
	executor  *Executor
	assembler *Assembler
	writer    *Writer
	runs      RunStore
	now       func() time.Time
	log       *logger.Logger
}

// NewService creates the report service. runs may be nil to skip run history.
func NewService(reader *ingest.Reader, collector Collector, org Organizer, executor *Executor, assembler *Assembler, writer *Writer, runs RunStore) *Service {
	return &Service{
		reader:    reader,
		collector: collector,
		organizer: org,
		executor:  executor,
		assembler: assembler,
		writer:    writer,
		runs:      runs,
		now:       time.Now,
		log:       logger.With("component", "report"),
	}
}

// Generate produces the full report for one company profile. An empty section
// list means every known section.
func (s *Service) Generate(ctx context.Context, profileName string, sections []domain.Section) (result *Result, err error) {
	started := s.now()
	defer func() {
		metrics.RecordReportRun(err)
	}()

	profile, err := s.reader.ReadProfile(profileName)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		sections = domain.AllSections()
	}
	currentDate := started.Format("2006-01-02")

	run := &domain.Run{CompanyName: profile.CompanyName}
	runs := s.runs
	if runs != nil {
		if createErr := runs.Create(ctx, run); createErr != nil {
			s.log.Warnw("failed to record run start", "company", profile.CompanyName, "error", createErr)
			runs = nil
		}
	}
	defer func() {
		s.completeRun(ctx, runs, run, result, err)
	}()

	s.log.Infow("report run started",
		"company", profile.CompanyName,
		"sections", len(sections),
		"run_id", run.ID)

	sourceContent := s.collector.Collect(ctx, profile)

	organized, err := s.organizer.Organize(ctx, profile.CompanyName, sourceContent, currentDate)
	if err != nil {
		return nil, err
	}
	organizedJSON := organizer.MarshalData(organized.Data)

	structure := &domain.Structure{}
	outcomes, err := s.executor.Run(ctx, sections, profile.CompanyName, organizedJSON, currentDate, structure)
	if err != nil {
		return nil, err
	}
	s.persistSections(ctx, runs, run.ID, outcomes)
	s.writeSections(profile.CompanyName, outcomes, currentDate)

	finalReport, err := s.assembler.Assemble(ctx, profile.CompanyName, structure)
	if err != nil {
		return nil, err
	}

	reportPath, writeErr := s.writer.WriteSection(profile.CompanyName, FinalReportName, domain.FinalReportNumber, finalReport, currentDate)
	if writeErr != nil {
		s.log.Warnw("failed to write final report file", "company", profile.CompanyName, "error", writeErr)
	}

	summary := s.executiveSummary(ctx, profile.CompanyName, finalReport, currentDate)

	result = &Result{
		CompanyName:         profile.CompanyName,
		FinalReport:         finalReport,
		ExecutiveSummary:    summary,
		ReportPath:          reportPath,
		Sections:            outcomes,
		OrganizerIterations: organized.Iterations,
		OrganizerAccepted:   organized.Accepted,
	}

	s.log.Infow("report run finished",
		"company", profile.CompanyName,
		"elapsed", time.Since(started),
		"sections", len(outcomes),
		"report_path", reportPath)
	return result, nil
}

// executiveSummary is best-effort: the report stands on its own if the
// summary pass fails.
func (s *Service) executiveSummary(ctx context.Context, companyName, finalReport, currentDate string) string {
	summary, err := s.assembler.ExecutiveSummary(ctx, companyName, finalReport)
	if err != nil {
		s.log.Warnw("executive summary failed", "company", companyName, "error", err)
		return ""
	}

	if _, err := s.writer.WriteSection(companyName, ExecutiveSummaryName, domain.ExecutiveSummaryNumber, summary, currentDate); err != nil {
		s.log.Warnw("failed to write executive summary file", "company", companyName, "error", err)
	}
	return summary
}

func (s *Service) writeSections(companyName string, outcomes []SectionOutcome, currentDate string) {
	for _, o := range outcomes {
		if _, err := s.writer.WriteSection(companyName, o.Section.String(), o.Section.Number(), o.Content, currentDate); err != nil {
			s.log.Warnw("failed to write section file",
				"company", companyName,
				"section", o.Section,
				"error", err)
		}
	}
}

func (s *Service) persistSections(ctx context.Context, runs RunStore, runID uuid.UUID, outcomes []SectionOutcome) {
	if runs == nil {
		return
	}
	for _, o := range outcomes {
		rec := &domain.SectionRecord{
			RunID:     runID,
			Section:   o.Section.String(),
			Content:   o.Content,
			Succeeded: o.Succeeded,
		}
		if err := runs.AddSection(ctx, rec); err != nil {
			s.log.Warnw("failed to record section outcome", "section", o.Section, "error", err)
		}
	}
}

func (s *Service) completeRun(ctx context.Context, runs RunStore, run *domain.Run, result *Result, runErr error) {
	if runs == nil {
		return
	}

	status := domain.RunStatusCompleted
	iterations := 0
	reportPath := ""
	if result != nil {
		iterations = result.OrganizerIterations
		reportPath = result.ReportPath
	}
	if runErr != nil {
		status = domain.RunStatusFailed
	}

	if err := runs.Complete(ctx, run.ID, status, iterations, reportPath); err != nil && !errors.Is(err, errors.ErrNotFound) {
		s.log.Warnw("failed to record run completion", "run_id", run.ID, "error", err)
	}
}
