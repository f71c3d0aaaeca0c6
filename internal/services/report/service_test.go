package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diligence/internal/domain/company"
	domain "diligence/internal/domain/report"
	"diligence/internal/services/ingest"
	"diligence/internal/services/organizer"
	"diligence/pkg/errors"
)

type fakeCollector struct {
	content string
}

func (f *fakeCollector) Collect(_ context.Context, _ *company.Profile) string {
	return f.content
}

type fakeOrganizer struct {
	result *organizer.Result
	err    error
	source string
}

func (f *fakeOrganizer) Organize(_ context.Context, _, sourceContent, _ string) (*organizer.Result, error) {
	f.source = sourceContent
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeRunStore struct {
	created   *domain.Run
	completed bool
	status    domain.RunStatus
	sections  []domain.SectionRecord
	createErr error
}

func (f *fakeRunStore) Create(_ context.Context, run *domain.Run) error {
	if f.createErr != nil {
		return f.createErr
	}
	run.ID = uuid.New()
	f.created = run
	return nil
}

func (f *fakeRunStore) Complete(_ context.Context, _ uuid.UUID, status domain.RunStatus, _ int, _ string) error {
	f.completed = true
	f.status = status
	return nil
}

func (f *fakeRunStore) AddSection(_ context.Context, rec *domain.SectionRecord) error {
	f.sections = append(f.sections, *rec)
	return nil
}

func writeProfile(t *testing.T) *ingest.Reader {
	t.Helper()
	dir := t.TempDir()
	profile := `{
		"company_name": "Acme",
		"company_sources": [
			{"source": "Google Docs", "identifier": "https://docs.google.com/document/d/abc123/edit", "description": "Pitch deck"}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.json"), []byte(profile), 0o644))

	reader, err := ingest.NewReader(dir)
	require.NoError(t, err)
	return reader
}

func newServiceForTest(t *testing.T, org Organizer, runs RunStore) (*Service, string, *scriptedProvider) {
	t.Helper()

	provider := &scriptedProvider{responses: []scriptedResponse{
		{text: "# Acme Investment Report\n\nNarrative."},
		{text: "## Executive Summary\n\nSummary."},
	}}

	outputDir := t.TempDir()
	executor, _ := newExecutor(&fakeResearcher{}, 2, 0)

	svc := NewService(
		writeProfile(t),
		&fakeCollector{content: "raw source content"},
		org,
		executor,
		newAssembler(provider),
		NewWriter(outputDir),
		runs,
	)
	return svc, outputDir, provider
}

func acceptedOrganizer() *fakeOrganizer {
	return &fakeOrganizer{result: &organizer.Result{
		Data:       domain.OrganizedData{Data: map[string]interface{}{"funding": "$10M"}},
		Iterations: 1,
		Accepted:   true,
	}}
}

func TestGenerate_FullRun(t *testing.T) {
	org := acceptedOrganizer()
	store := &fakeRunStore{}
	svc, outputDir, _ := newServiceForTest(t, org, store)

	result, err := svc.Generate(context.Background(), "acme", nil)
	require.NoError(t, err)

	assert.Equal(t, "Acme", result.CompanyName)
	assert.Contains(t, result.FinalReport, "# Acme Investment Report")
	assert.Contains(t, result.ExecutiveSummary, "## Executive Summary")
	assert.Len(t, result.Sections, len(domain.AllSections()))
	assert.Equal(t, 1, result.OrganizerIterations)
	assert.True(t, result.OrganizerAccepted)

	// Organizer received the collected source content
	assert.Equal(t, "raw source content", org.source)

	// Numbered artifacts on disk
	companyDir := filepath.Join(outputDir, "Acme")
	for _, name := range []string{"1.company_overview.md", "7.report_conclusion.md", "8.final_report.md", "9.executive_summary.md"} {
		_, statErr := os.Stat(filepath.Join(companyDir, name))
		assert.NoError(t, statErr, name)
	}

	// Run history recorded
	require.NotNil(t, store.created)
	assert.True(t, store.completed)
	assert.Equal(t, domain.RunStatusCompleted, store.status)
	assert.Len(t, store.sections, len(domain.AllSections()))
}

func TestGenerate_SectionSubset(t *testing.T) {
	svc, _, _ := newServiceForTest(t, acceptedOrganizer(), nil)

	result, err := svc.Generate(context.Background(), "acme", []domain.Section{domain.SectionMarket})
	require.NoError(t, err)
	require.Len(t, result.Sections, 1)
	assert.Equal(t, domain.SectionMarket, result.Sections[0].Section)
}

func TestGenerate_OrganizerFailureMarksRunFailed(t *testing.T) {
	store := &fakeRunStore{}
	svc, _, _ := newServiceForTest(t, &fakeOrganizer{err: errors.Wrap(errors.ErrGenerationFailed, "organize")}, store)

	_, err := svc.Generate(context.Background(), "acme", nil)
	require.Error(t, err)

	assert.True(t, store.completed)
	assert.Equal(t, domain.RunStatusFailed, store.status)
}

func TestGenerate_UnknownProfile(t *testing.T) {
	svc, _, _ := newServiceForTest(t, acceptedOrganizer(), nil)

	_, err := svc.Generate(context.Background(), "nonexistent", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestGenerate_RunStoreCreateFailureIsNonFatal(t *testing.T) {
	store := &fakeRunStore{createErr: errors.New("db down")}
	svc, _, _ := newServiceForTest(t, acceptedOrganizer(), store)

	result, err := svc.Generate(context.Background(), "acme", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.FinalReport)
	assert.False(t, store.completed)
}
