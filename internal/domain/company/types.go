package company

import (
	"strings"

	"diligence/pkg/errors"
)

// SourceType categorizes where an input source lives.
type SourceType string

const (
	SourceGoogleDocs SourceType = "Google Docs"
	SourceSlack      SourceType = "Slack"
	SourceWebpage    SourceType = "Webpage"
)

// Source is one place to pull company information from.
type Source struct {
	Source      SourceType `json:"source"`
	Identifier  string     `json:"identifier"`
	Description string     `json:"description"`
}

// Validate checks the source definition.
func (s Source) Validate() error {
	switch s.Source {
	case SourceGoogleDocs, SourceSlack, SourceWebpage:
	default:
		return errors.NewValidationError("source", "unsupported source type", string(s.Source))
	}
	if strings.TrimSpace(s.Identifier) == "" {
		return errors.NewValidationError("identifier", "must not be empty", s.Identifier)
	}
	return nil
}

// Profile is a company's full input-source definition.
type Profile struct {
	CompanyName      string   `json:"company_name"`
	CompanySources   []Source `json:"company_sources"`
	ReferenceSources []Source `json:"reference_sources"`
}

// Validate checks the profile definition.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.CompanyName) == "" {
		return errors.NewValidationError("company_name", "must not be empty", p.CompanyName)
	}
	if len(p.CompanySources) == 0 {
		return errors.NewValidationError("company_sources", "at least one source is required", nil)
	}
	for _, s := range p.CompanySources {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, s := range p.ReferenceSources {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SourcesOfType filters company sources by type.
func (p Profile) SourcesOfType(t SourceType) []Source {
	var out []Source
	for _, s := range p.CompanySources {
		if s.Source == t {
			out = append(out, s)
		}
	}
	return out
}
