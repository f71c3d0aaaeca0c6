package report

import (
	"diligence/pkg/errors"
)

// Section names one subdivision of the final report.
type Section string

const (
	SectionCompanyOverview      Section = "Company Overview"
	SectionWhyInteresting       Section = "Why Interesting"
	SectionProduct              Section = "Product"
	SectionCompetitiveLandscape Section = "Competitive Landscape"
	SectionMarket               Section = "Market"
	SectionFounders             Section = "Founders"
	SectionReportConclusion     Section = "Report Conclusion"
)

func (s Section) String() string { return string(s) }

// sectionSpec binds a section to its Structure field and output file number.
type sectionSpec struct {
	number int
	get    func(*Structure) string
	set    func(*Structure, string)
}

var sectionSpecs = map[Section]sectionSpec{
	SectionCompanyOverview: {
		number: 1,
		get:    func(r *Structure) string { return r.CompanyOverviewSection },
		set:    func(r *Structure, v string) { r.CompanyOverviewSection = v },
	},
	SectionWhyInteresting: {
		number: 2,
		get:    func(r *Structure) string { return r.WhyInterestingSection },
		set:    func(r *Structure, v string) { r.WhyInterestingSection = v },
	},
	SectionProduct: {
		number: 3,
		get:    func(r *Structure) string { return r.ProductSection },
		set:    func(r *Structure, v string) { r.ProductSection = v },
	},
	SectionCompetitiveLandscape: {
		number: 4,
		get:    func(r *Structure) string { return r.CompetitiveLandscapeSection },
		set:    func(r *Structure, v string) { r.CompetitiveLandscapeSection = v },
	},
	SectionMarket: {
		number: 5,
		get:    func(r *Structure) string { return r.MarketSection },
		set:    func(r *Structure, v string) { r.MarketSection = v },
	},
	SectionFounders: {
		number: 6,
		get:    func(r *Structure) string { return r.FoundersSection },
		set:    func(r *Structure, v string) { r.FoundersSection = v },
	},
	SectionReportConclusion: {
		number: 7,
		get:    func(r *Structure) string { return r.ReportConclusionSection },
		set:    func(r *Structure, v string) { r.ReportConclusionSection = v },
	},
}

// FinalReportNumber is the file-numbering slot for the assembled report.
const FinalReportNumber = 8

// ExecutiveSummaryNumber is the file-numbering slot for the executive summary.
const ExecutiveSummaryNumber = 9

// AllSections returns every known section in report order.
func AllSections() []Section {
	return []Section{
		SectionCompanyOverview,
		SectionWhyInteresting,
		SectionProduct,
		SectionCompetitiveLandscape,
		SectionMarket,
		SectionFounders,
		SectionReportConclusion,
	}
}

// ParseSections validates a list of section names, preserving first-seen
// order. An unknown name is a configuration error surfaced before any work
// starts. Duplicates are collapsed; each section owns exactly one Structure
// field, so scheduling it twice in one run would race on that field.
func ParseSections(names []string) ([]Section, error) {
	sections := make([]Section, 0, len(names))
	seen := make(map[Section]bool, len(names))
	for _, name := range names {
		s := Section(name)
		if _, ok := sectionSpecs[s]; !ok {
			return nil, errors.Wrapf(errors.ErrUnknownSection, "%q", name)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		sections = append(sections, s)
	}
	return sections, nil
}

// Number returns the section's slot in the numbered output files.
func (s Section) Number() int {
	spec, ok := sectionSpecs[s]
	if !ok {
		return 99
	}
	return spec.number
}

// Valid reports whether the section has a registered configuration.
func (s Section) Valid() bool {
	_, ok := sectionSpecs[s]
	return ok
}

// SetField writes a section's content into its Structure field.
func (r *Structure) SetField(s Section, content string) error {
	spec, ok := sectionSpecs[s]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownSection, "%q", s)
	}
	spec.set(r, content)
	return nil
}

// Field reads a section's content from its Structure field.
func (r *Structure) Field(s Section) (string, error) {
	spec, ok := sectionSpecs[s]
	if !ok {
		return "", errors.Wrapf(errors.ErrUnknownSection, "%q", s)
	}
	return spec.get(r), nil
}
