package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diligence/internal/adapters/config"
	domain "diligence/internal/domain/report"
	"diligence/pkg/errors"
)

type fakeResearcher struct {
	mu       sync.Mutex
	content  map[domain.Section]string
	failures map[domain.Section]error
	calls    []domain.Section
	active   int
	peak     int
}

func (f *fakeResearcher) ResearchSection(_ context.Context, section domain.Section, _, _, _ string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, section)
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if err, ok := f.failures[section]; ok {
		return "", err
	}
	if content, ok := f.content[section]; ok {
		return content, nil
	}
	return fmt.Sprintf("## %s\n\ncontent", section), nil
}

func newExecutor(researcher SectionResearcher, batchSize int, delay time.Duration) (*Executor, *[]time.Duration) {
	e := NewExecutor(researcher, config.PipelineConfig{BatchSize: batchSize, BatchDelay: delay})
	sleeps := &[]time.Duration{}
	e.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return e, sleeps
}

func TestExecutor_PopulatesEveryRequestedField(t *testing.T) {
	researcher := &fakeResearcher{}
	e, _ := newExecutor(researcher, 2, 0)

	sections := domain.AllSections()
	structure := &domain.Structure{}

	outcomes, err := e.Run(context.Background(), sections, "Acme", "{}", "2026-08-29", structure)
	require.NoError(t, err)
	require.Len(t, outcomes, len(sections))

	for _, s := range sections {
		content, err := structure.Field(s)
		require.NoError(t, err)
		assert.NotEmpty(t, content, "section %s", s)
	}
}

func TestExecutor_UntouchedFieldsStayEmpty(t *testing.T) {
	researcher := &fakeResearcher{}
	e, _ := newExecutor(researcher, 1, 0)

	structure := &domain.Structure{}
	_, err := e.Run(context.Background(), []domain.Section{domain.SectionMarket}, "Acme", "{}", "2026-08-29", structure)
	require.NoError(t, err)

	market, _ := structure.Field(domain.SectionMarket)
	product, _ := structure.Field(domain.SectionProduct)
	assert.NotEmpty(t, market)
	assert.Empty(t, product)
}

func TestExecutor_SleepsBetweenBatchesOnly(t *testing.T) {
	researcher := &fakeResearcher{}
	delay := 5 * time.Second
	e, sleeps := newExecutor(researcher, 2, delay)

	sections := []domain.Section{
		domain.SectionCompanyOverview,
		domain.SectionWhyInteresting,
		domain.SectionProduct,
		domain.SectionMarket,
	}

	_, err := e.Run(context.Background(), sections, "Acme", "{}", "2026-08-29", &domain.Structure{})
	require.NoError(t, err)

	// One sleep between the two batches, none after the last
	require.Len(t, *sleeps, 1)
	assert.Equal(t, delay, (*sleeps)[0])
}

func TestExecutor_BatchMemberFailureWritesPlaceholder(t *testing.T) {
	researcher := &fakeResearcher{
		failures: map[domain.Section]error{
			domain.SectionMarket: errors.New("quota exceeded"),
		},
	}
	e, _ := newExecutor(researcher, 2, 0)

	structure := &domain.Structure{}
	outcomes, err := e.Run(context.Background(), []domain.Section{domain.SectionMarket, domain.SectionProduct}, "Acme", "{}", "2026-08-29", structure)
	require.NoError(t, err)

	market, _ := structure.Field(domain.SectionMarket)
	assert.Equal(t, "*Section unavailable: quota exceeded*", market)

	product, _ := structure.Field(domain.SectionProduct)
	assert.Contains(t, product, "## Product")

	byName := map[domain.Section]SectionOutcome{}
	for _, o := range outcomes {
		byName[o.Section] = o
	}
	assert.False(t, byName[domain.SectionMarket].Succeeded)
	assert.True(t, byName[domain.SectionProduct].Succeeded)
}

func TestExecutor_UnknownSectionFailsBeforeAnyResearch(t *testing.T) {
	researcher := &fakeResearcher{}
	e, sleeps := newExecutor(researcher, 2, time.Second)

	sections := []domain.Section{domain.SectionMarket, domain.Section("Valuation")}
	_, err := e.Run(context.Background(), sections, "Acme", "{}", "2026-08-29", &domain.Structure{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownSection))

	// No research call and no batch pacing happened
	assert.Empty(t, researcher.calls)
	assert.Empty(t, *sleeps)
}

func TestExecutor_BatchSizeOneRunsSequentially(t *testing.T) {
	researcher := &fakeResearcher{
		content: map[domain.Section]string{
			domain.SectionMarket:  "total addressable market: $1B",
			domain.SectionProduct: "Widget",
		},
	}
	e, _ := newExecutor(researcher, 1, 0)

	structure := &domain.Structure{}
	_, err := e.Run(context.Background(), []domain.Section{domain.SectionMarket, domain.SectionProduct}, "Acme", "{}", "2026-08-29", structure)
	require.NoError(t, err)

	assert.Equal(t, []domain.Section{domain.SectionMarket, domain.SectionProduct}, researcher.calls)
	assert.Equal(t, 1, researcher.peak)

	market, _ := structure.Field(domain.SectionMarket)
	assert.Equal(t, "total addressable market: $1B", market)
	product, _ := structure.Field(domain.SectionProduct)
	assert.Equal(t, "Widget", product)
}

func TestExecutor_BatchRunsConcurrently(t *testing.T) {
	researcher := &fakeResearcher{}
	e, _ := newExecutor(researcher, 3, 0)

	sections := []domain.Section{
		domain.SectionCompanyOverview,
		domain.SectionProduct,
		domain.SectionMarket,
	}

	_, err := e.Run(context.Background(), sections, "Acme", "{}", "2026-08-29", &domain.Structure{})
	require.NoError(t, err)
	assert.Greater(t, researcher.peak, 1)

	got := append([]domain.Section(nil), researcher.calls...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := append([]domain.Section(nil), sections...)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	assert.Equal(t, want, got)
}
