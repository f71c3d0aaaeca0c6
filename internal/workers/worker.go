package workers

import (
	"context"
	"sync"
	"time"

	"diligence/pkg/logger"
)

// Worker is one periodic background task. Run executes a single sweep and
// returns; the scheduler re-invokes it every Interval.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
	Interval() time.Duration
	Enabled() bool
}

// WorkerWithHealth extends Worker with run bookkeeping.
type WorkerWithHealth interface {
	Worker
	Health() WorkerHealth
	SetEnabled(enabled bool)
}

// WorkerHealth is a snapshot of a worker's run history.
type WorkerHealth struct {
	LastRun      time.Time
	LastDuration time.Duration
	LastError    error
	RunCount     int64
	ErrorCount   int64
	AvgDuration  time.Duration
	Enabled      bool
}

// BaseWorker carries the name, interval and health bookkeeping shared by all
// workers. Concrete workers embed it and implement Run.
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger

	healthMu      sync.RWMutex
	lastRun       time.Time
	lastDuration  time.Duration
	lastError     error
	runCount      int64
	errorCount    int64
	totalDuration time.Duration
}

func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.With("worker", name),
	}
}

func (w *BaseWorker) Name() string { return w.name }

func (w *BaseWorker) Interval() time.Duration { return w.interval }

func (w *BaseWorker) Enabled() bool {
	w.healthMu.RLock()
	defer w.healthMu.RUnlock()
	return w.enabled
}

// SetEnabled toggles the worker without restarting the scheduler.
func (w *BaseWorker) SetEnabled(enabled bool) {
	w.healthMu.Lock()
	defer w.healthMu.Unlock()
	w.enabled = enabled
	w.log.Infow("Worker enabled state changed", "enabled", enabled)
}

// Log returns the worker-scoped logger.
func (w *BaseWorker) Log() *logger.Logger {
	return w.log
}

// Health returns a snapshot of the worker's run history.
func (w *BaseWorker) Health() WorkerHealth {
	w.healthMu.RLock()
	defer w.healthMu.RUnlock()

	avgDuration := time.Duration(0)
	if w.runCount > 0 {
		avgDuration = time.Duration(int64(w.totalDuration) / w.runCount)
	}

	return WorkerHealth{
		LastRun:      w.lastRun,
		LastDuration: w.lastDuration,
		LastError:    w.lastError,
		RunCount:     w.runCount,
		ErrorCount:   w.errorCount,
		AvgDuration:  avgDuration,
		Enabled:      w.enabled,
	}
}

// RecordRun records a successful sweep.
func (w *BaseWorker) RecordRun(duration time.Duration) {
	w.record(nil, duration)
}

// RecordError records a failed sweep.
func (w *BaseWorker) RecordError(err error, duration time.Duration) {
	w.record(err, duration)
}

func (w *BaseWorker) record(err error, duration time.Duration) {
	w.healthMu.Lock()
	defer w.healthMu.Unlock()

	w.lastRun = time.Now()
	w.lastDuration = duration
	w.lastError = err
	w.runCount++
	w.totalDuration += duration
	if err != nil {
		w.errorCount++
	}
}
