package workers

import (
	"context"
	"time"

	domain "diligence/internal/domain/report"
	reportsvc "diligence/internal/services/report"
	"diligence/pkg/errors"
)

// ProfileLister enumerates the company profiles available for regeneration.
type ProfileLister interface {
	ListAvailable() ([]string, error)
}

// ReportGenerator runs the full report pipeline for one company.
type ReportGenerator interface {
	Generate(ctx context.Context, profileName string, sections []domain.Section) (*reportsvc.Result, error)
}

// Locker guards against two daemon instances regenerating the same company.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

const regenLockPrefix = "report_regen:"

// ReportWorker periodically regenerates the report for every known company.
// One failed company does not stop the sweep.
type ReportWorker struct {
	*BaseWorker
	profiles ProfileLister
	reports  ReportGenerator
	locker   Locker
	lockTTL  time.Duration
}

// NewReportWorker creates the regeneration worker. locker may be nil when
// running a single instance.
func NewReportWorker(profiles ProfileLister, reports ReportGenerator, locker Locker, interval time.Duration, enabled bool) *ReportWorker {
	return &ReportWorker{
		BaseWorker: NewBaseWorker("report_regenerator", interval, enabled),
		profiles:   profiles,
		reports:    reports,
		locker:     locker,
		lockTTL:    interval,
	}
}

// Run regenerates every company's report once.
func (w *ReportWorker) Run(ctx context.Context) error {
	start := time.Now()

	companies, err := w.profiles.ListAvailable()
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "list company profiles")
	}

	multi := &errors.MultiError{}
	regenerated := 0
	for _, name := range companies {
		if ctx.Err() != nil {
			multi.Add(ctx.Err())
			break
		}

		if err := w.regenerate(ctx, name); err != nil {
			w.Log().Errorw("regeneration failed", "company", name, "error", err)
			multi.Add(errors.Wrapf(err, "regenerate %s", name))
			continue
		}
		regenerated++
	}

	duration := time.Since(start)
	if err := multi.ToError(); err != nil {
		w.RecordError(err, duration)
		return err
	}

	w.RecordRun(duration)
	w.Log().Infow("regeneration sweep completed",
		"companies", len(companies),
		"regenerated", regenerated,
		"duration", duration)
	return nil
}

func (w *ReportWorker) regenerate(ctx context.Context, name string) error {
	if w.locker != nil {
		key := regenLockPrefix + name
		acquired, err := w.locker.AcquireLock(ctx, key, w.lockTTL)
		if err != nil {
			return errors.Wrap(err, "acquire regeneration lock")
		}
		if !acquired {
			w.Log().Infow("skipping company, lock held elsewhere", "company", name)
			return nil
		}
		defer func() {
			if err := w.locker.ReleaseLock(ctx, key); err != nil {
				w.Log().Warnw("failed to release regeneration lock", "company", name, "error", err)
			}
		}()
	}

	_, err := w.reports.Generate(ctx, name, nil)
	return err
}
