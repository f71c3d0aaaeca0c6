package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "diligence/internal/domain/report"
	reportsvc "diligence/internal/services/report"
	"diligence/pkg/errors"
)

type fakeLister struct {
	names []string
	err   error
}

func (f *fakeLister) ListAvailable() ([]string, error) {
	return f.names, f.err
}

type fakeGenerator struct {
	failures map[string]error
	calls    []string
}

func (f *fakeGenerator) Generate(_ context.Context, profileName string, _ []domain.Section) (*reportsvc.Result, error) {
	f.calls = append(f.calls, profileName)
	if err, ok := f.failures[profileName]; ok {
		return nil, err
	}
	return &reportsvc.Result{CompanyName: profileName}, nil
}

type fakeLocker struct {
	held     map[string]bool
	acquired []string
	released []string
}

func (f *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.acquired = append(f.acquired, key)
	return !f.held[key], nil
}

func (f *fakeLocker) ReleaseLock(_ context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

func TestReportWorker_RegeneratesEveryCompany(t *testing.T) {
	gen := &fakeGenerator{}
	w := NewReportWorker(&fakeLister{names: []string{"acme", "globex"}}, gen, nil, time.Hour, true)

	err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, gen.calls)

	health := w.Health()
	assert.Equal(t, int64(1), health.RunCount)
	assert.Equal(t, int64(0), health.ErrorCount)
}

func TestReportWorker_OneFailureDoesNotStopSweep(t *testing.T) {
	gen := &fakeGenerator{failures: map[string]error{
		"acme": errors.New("model unavailable"),
	}}
	w := NewReportWorker(&fakeLister{names: []string{"acme", "globex"}}, gen, nil, time.Hour, true)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme")
	assert.Equal(t, []string{"acme", "globex"}, gen.calls)

	health := w.Health()
	assert.Equal(t, int64(1), health.ErrorCount)
}

func TestReportWorker_SkipsLockedCompany(t *testing.T) {
	gen := &fakeGenerator{}
	locker := &fakeLocker{held: map[string]bool{"report_regen:acme": true}}
	w := NewReportWorker(&fakeLister{names: []string{"acme", "globex"}}, gen, locker, time.Hour, true)

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"globex"}, gen.calls)
	assert.Equal(t, []string{"report_regen:acme", "report_regen:globex"}, locker.acquired)
	assert.Equal(t, []string{"report_regen:globex"}, locker.released)
}

func TestReportWorker_ListFailure(t *testing.T) {
	w := NewReportWorker(&fakeLister{err: errors.New("dir gone")}, &fakeGenerator{}, nil, time.Hour, true)

	err := w.Run(context.Background())
	require.Error(t, err)
}
