package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"diligence/internal/adapters/config"
	domain "diligence/internal/domain/report"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
)

// SectionResearcher produces the markdown body for one report section.
type SectionResearcher interface {
	ResearchSection(ctx context.Context, section domain.Section, companyName, organizedData, currentDate string) (string, error)
}

// SectionOutcome is one section's result within an executor run.
type SectionOutcome struct {
	Section   domain.Section
	Content   string
	Succeeded bool
	Duration  time.Duration
}

// Executor fans the section list out in fixed-size batches. Sections within a
// batch run concurrently; the next batch does not start until the current one
// has fully drained. A failed section writes a placeholder into its field and
// never aborts the batch.
type Executor struct {
	researcher SectionResearcher
	batchSize  int
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	log        *logger.Logger
}

// NewExecutor creates a batched executor from pipeline settings.
func NewExecutor(researcher SectionResearcher, cfg config.PipelineConfig) *Executor {
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	return &Executor{
		researcher: researcher,
		batchSize:  batchSize,
		batchDelay: cfg.BatchDelay,
		sleep:      sleepCtx,
		log:        logger.With("component", "executor"),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run researches every section and writes each result into its field of the
// shared structure. Each concurrent member writes a disjoint field, so the
// structure needs no locking; outcomes are collected per batch under a mutex.
func (e *Executor) Run(ctx context.Context, sections []domain.Section, companyName, organizedData, currentDate string, structure *domain.Structure) ([]SectionOutcome, error) {
	// Reject unknown sections before any batch launches so a bad list costs
	// zero generation calls.
	for _, section := range sections {
		if !section.Valid() {
			return nil, errors.Wrapf(errors.ErrUnknownSection, "%q", section)
		}
	}

	outcomes := make([]SectionOutcome, 0, len(sections))

	for start := 0; start < len(sections); start += e.batchSize {
		end := start + e.batchSize
		if end > len(sections) {
			end = len(sections)
		}
		batch := sections[start:end]

		e.log.Infow("starting batch",
			"company", companyName,
			"batch", start/e.batchSize+1,
			"sections", len(batch))

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, section := range batch {
			wg.Add(1)
			go func(section domain.Section) {
				defer wg.Done()

				began := time.Now()
				content, err := e.researcher.ResearchSection(ctx, section, companyName, organizedData, currentDate)
				outcome := SectionOutcome{
					Section:   section,
					Content:   content,
					Succeeded: err == nil,
					Duration:  time.Since(began),
				}
				if err != nil {
					e.log.Errorw("section research failed",
						"company", companyName,
						"section", section,
						"error", err)
					outcome.Content = fmt.Sprintf("*Section unavailable: %v*", err)
				}

				if setErr := structure.SetField(section, outcome.Content); setErr != nil {
					e.log.Errorw("unknown section in batch", "section", section, "error", setErr)
					outcome.Succeeded = false
				}

				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}(section)
		}
		wg.Wait()

		if e.batchDelay > 0 && end < len(sections) {
			if err := e.sleep(ctx, e.batchDelay); err != nil {
				return outcomes, err
			}
		}
	}

	return outcomes, nil
}
