package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"diligence/internal/domain/report"
	"diligence/pkg/errors"
)

// RunRepository persists report run history
type RunRepository struct {
	db DBTX
}

// NewRunRepository creates a new run repository
func NewRunRepository(db DBTX) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run in running state
func (r *RunRepository) Create(ctx context.Context, run *report.Run) error {
	query := `
		INSERT INTO report_runs (id, company_name, status, organizer_iterations, report_path, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = report.RunStatusRunning
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.CompanyName, run.Status, run.OrganizerIterations, run.ReportPath, run.StartedAt,
	)
	if err != nil {
		return errors.Wrap(err, "create report run")
	}
	return nil
}

// Complete marks a run finished with its final status and artifacts
func (r *RunRepository) Complete(ctx context.Context, id uuid.UUID, status report.RunStatus, iterations int, reportPath string) error {
	query := `
		UPDATE report_runs
		SET status = $2, organizer_iterations = $3, report_path = $4, completed_at = $5
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, status, iterations, reportPath, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "complete report run")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "complete report run rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrNotFound, "report run %s not found", id)
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Run, error) {
	query := `
		SELECT id, company_name, status, organizer_iterations, report_path, started_at, completed_at
		FROM report_runs
		WHERE id = $1
	`

	run := &report.Run{}
	err := r.db.GetContext(ctx, run, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "report run %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get report run by id")
	}
	return run, nil
}

// ListByCompany returns the most recent runs for a company
func (r *RunRepository) ListByCompany(ctx context.Context, companyName string, limit int) ([]report.Run, error) {
	query := `
		SELECT id, company_name, status, organizer_iterations, report_path, started_at, completed_at
		FROM report_runs
		WHERE company_name = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	if limit <= 0 {
		limit = 20
	}

	var runs []report.Run
	if err := r.db.SelectContext(ctx, &runs, query, companyName, limit); err != nil {
		return nil, errors.Wrap(err, "list report runs by company")
	}
	return runs, nil
}

// AddSection records a generated section for a run
func (r *RunRepository) AddSection(ctx context.Context, rec *report.SectionRecord) error {
	query := `
		INSERT INTO report_run_sections (id, run_id, section, content, succeeded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.RunID, rec.Section, rec.Content, rec.Succeeded, rec.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "add run section")
	}
	return nil
}

// ListSections returns a run's sections in insertion order
func (r *RunRepository) ListSections(ctx context.Context, runID uuid.UUID) ([]report.SectionRecord, error) {
	query := `
		SELECT id, run_id, section, content, succeeded, created_at
		FROM report_run_sections
		WHERE run_id = $1
		ORDER BY created_at ASC
	`

	var sections []report.SectionRecord
	if err := r.db.SelectContext(ctx, &sections, query, runID); err != nil {
		return nil, errors.Wrap(err, "list run sections")
	}
	return sections, nil
}
