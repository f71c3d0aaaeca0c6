package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diligence/internal/domain/company"
	"diligence/pkg/errors"
)

const validProfile = `{
	"company_name": "Acme",
	"company_sources": [
		{"source": "Google Docs", "identifier": "https://docs.google.com/document/d/abc/edit", "description": "Pitch deck"},
		{"source": "Slack", "identifier": "C123", "description": "Founder channel"}
	],
	"reference_sources": [
		{"source": "Webpage", "identifier": "https://example.com/report", "description": "Industry report"}
	]
}`

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReader_ReadProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "acme.json", validProfile)

	reader, err := NewReader(dir)
	require.NoError(t, err)

	profile, err := reader.ReadProfile("acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.CompanyName)
	assert.Len(t, profile.CompanySources, 2)

	// Extension is optional
	same, err := reader.ReadProfile("acme.json")
	require.NoError(t, err)
	assert.Equal(t, profile.CompanyName, same.CompanyName)
}

func TestReader_MissingFile(t *testing.T) {
	reader, err := NewReader(t.TempDir())
	require.NoError(t, err)

	_, err = reader.ReadProfile("ghost")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReader_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "broken.json", "{not json")

	reader, err := NewReader(dir)
	require.NoError(t, err)

	_, err = reader.ReadProfile("broken")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestReader_InvalidProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "empty.json", `{"company_name":"","company_sources":[],"reference_sources":[]}`)

	reader, err := NewReader(dir)
	require.NoError(t, err)

	_, err = reader.ReadProfile("empty")
	assert.Error(t, err)
}

func TestReader_MissingDirectory(t *testing.T) {
	_, err := NewReader("/nonexistent/input_sources")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReader_ListAvailable(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "beta.json", validProfile)
	writeProfile(t, dir, "acme.json", validProfile)
	writeProfile(t, dir, "notes.txt", "ignored")

	reader, err := NewReader(dir)
	require.NoError(t, err)

	names, err := reader.ListAvailable()
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "beta"}, names)
}

func TestFormatSources(t *testing.T) {
	profile := &company.Profile{
		CompanyName: "Acme",
		CompanySources: []company.Source{
			{Source: company.SourceGoogleDocs, Identifier: "doc-url", Description: "Pitch deck"},
			{Source: company.SourceSlack, Identifier: "C123", Description: "Founder channel"},
		},
	}

	all := FormatSources(profile, "")
	assert.Contains(t, all, "- Google Docs: doc-url (Pitch deck)")
	assert.Contains(t, all, "- Slack: C123 (Founder channel)")

	onlyDocs := FormatSources(profile, company.SourceGoogleDocs)
	assert.Contains(t, onlyDocs, "doc-url")
	assert.NotContains(t, onlyDocs, "C123")

	assert.Equal(t, "No Webpage sources found.", FormatSources(profile, company.SourceWebpage))
}
