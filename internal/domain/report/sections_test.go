package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diligence/pkg/errors"
)

func TestParseSections_PreservesOrder(t *testing.T) {
	sections, err := ParseSections([]string{"Market", "Product", "Founders"})
	require.NoError(t, err)
	assert.Equal(t, []Section{SectionMarket, SectionProduct, SectionFounders}, sections)
}

func TestParseSections_UnknownName(t *testing.T) {
	_, err := ParseSections([]string{"Market", "Valuation"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownSection))
	assert.Contains(t, err.Error(), "Valuation")
}

func TestParseSections_CollapsesDuplicates(t *testing.T) {
	sections, err := ParseSections([]string{"Market", "Market", "Product", "Market"})
	require.NoError(t, err)
	assert.Equal(t, []Section{SectionMarket, SectionProduct}, sections)
}

func TestStructure_FieldRoundTrip(t *testing.T) {
	var s Structure
	require.NoError(t, s.SetField(SectionProduct, "## Product"))

	got, err := s.Field(SectionProduct)
	require.NoError(t, err)
	assert.Equal(t, "## Product", got)

	_, err = s.Field(Section("Valuation"))
	assert.True(t, errors.Is(err, errors.ErrUnknownSection))
}

func TestSection_Number(t *testing.T) {
	assert.Equal(t, 1, SectionCompanyOverview.Number())
	assert.Equal(t, 7, SectionReportConclusion.Number())
	assert.Equal(t, 99, Section("Valuation").Number())
}
