package schemas

import (
	"google.golang.org/genai"

	"diligence/internal/domain/report"
	"diligence/pkg/errors"
)

// ============================================================================
// Section Result Types
// ============================================================================
// Every field is optional so partial extraction never fails hard. The shapes
// are consumed twice: their schema descriptions seed the discover prompt, and
// the synthesize step validates its output against them.

// Founder is one founder's researched profile.
type Founder struct {
	Name                string   `json:"name,omitempty"`
	Role                string   `json:"role,omitempty"`
	Background          string   `json:"background,omitempty"`
	Education           []string `json:"education,omitempty"`
	WorkExperience      []string `json:"work_experience,omitempty"`
	NotableAchievements []string `json:"notable_achievements,omitempty"`
	TrackRecord         string   `json:"track_record,omitempty"`
	RedFlags            []string `json:"red_flags,omitempty"`
	LinkedInURL         string   `json:"linkedin_url,omitempty"`
}

// FoundersSection aggregates the founding team assessment.
type FoundersSection struct {
	Founders          []Founder `json:"founders,omitempty"`
	OverallAssessment string    `json:"overall_assessment,omitempty"`
	Strengths         []string  `json:"strengths,omitempty"`
	Risks             []string  `json:"risks,omitempty"`
}

// CompanyOverviewSection captures the basics of the company.
type CompanyOverviewSection struct {
	WhatTheyDo    string   `json:"what_they_do,omitempty"`
	History       string   `json:"history,omitempty"`
	FoundedYear   string   `json:"founded_year,omitempty"`
	Headquarters  string   `json:"headquarters,omitempty"`
	FundingRounds []string `json:"funding_rounds,omitempty"`
	KeyMetrics    []string `json:"key_metrics,omitempty"`
}

// ProductSection describes the company's offering.
type ProductSection struct {
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	KeyFeatures  []string `json:"key_features,omitempty"`
	Technology   string   `json:"technology,omitempty"`
	PricingModel string   `json:"pricing_model,omitempty"`
	Customers    []string `json:"customers,omitempty"`
}

// MarketSection sizes the opportunity.
type MarketSection struct {
	TotalAddressableMarket string   `json:"total_addressable_market,omitempty"`
	ServiceableMarket      string   `json:"serviceable_market,omitempty"`
	GrowthRate             string   `json:"growth_rate,omitempty"`
	Trends                 []string `json:"trends,omitempty"`
	TargetCustomers        string   `json:"target_customers,omitempty"`
}

// Competitor is one entry in the competitive landscape.
type Competitor struct {
	Name            string `json:"name,omitempty"`
	Description     string `json:"description,omitempty"`
	Differentiation string `json:"differentiation,omitempty"`
}

// CompetitiveLandscapeSection maps the competition.
type CompetitiveLandscapeSection struct {
	Competitors    []Competitor `json:"competitors,omitempty"`
	MarketPosition string       `json:"market_position,omitempty"`
	Moat           string       `json:"moat,omitempty"`
}

// WhyInterestingSection states the investment thesis.
type WhyInterestingSection struct {
	InvestmentHighlights []string `json:"investment_highlights,omitempty"`
	Differentiators      []string `json:"differentiators,omitempty"`
	OpenQuestions        []string `json:"open_questions,omitempty"`
}

// ReportConclusionSection closes out the report.
type ReportConclusionSection struct {
	Summary         string   `json:"summary,omitempty"`
	KeyRisks        []string `json:"key_risks,omitempty"`
	Recommendation  string   `json:"recommendation,omitempty"`
	ConvictionLevel string   `json:"conviction_level,omitempty"`
}

// ============================================================================
// Response Schemas
// ============================================================================

// OrganizerFeedbackSchema validates the quality-check verdict.
var OrganizerFeedbackSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"feedback": {
			Type:        "STRING",
			Description: "Feedback on the data quality and completeness",
		},
		"is_acceptable": {
			Type:        "BOOLEAN",
			Description: "Whether the organized data is acceptable or needs re-processing",
		},
	},
	Required: []string{"feedback", "is_acceptable"},
}

// OrganizedDataSchema validates the organize step's output.
var OrganizedDataSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"data": {
			Type:        "OBJECT",
			Description: "Organized company data in structured JSON format, grouped by category",
		},
	},
	Required: []string{"data"},
}

// SearchTerms is the discover step's output.
type SearchTerms struct {
	SearchTerms []string `json:"search_terms,omitempty"`
}

// SearchTermsSchema validates the discover step's output.
var SearchTermsSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"search_terms": {
			Type:        "ARRAY",
			Description: "Web search queries that would surface the most relevant public information",
			Items:       &genai.Schema{Type: "STRING"},
		},
	},
	Required: []string{"search_terms"},
}

var founderSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"name": {
			Type:        "STRING",
			Description: "Full name of the founder",
		},
		"role": {
			Type:        "STRING",
			Description: "Current role or title in the startup",
		},
		"background": {
			Type:        "STRING",
			Description: "Narrative background summary",
		},
		"education": {
			Type:        "ARRAY",
			Description: "Education history",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"work_experience": {
			Type:        "ARRAY",
			Description: "Notable work experience",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"notable_achievements": {
			Type:        "ARRAY",
			Description: "Key achievements, awards, or exits",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"track_record": {
			Type:        "STRING",
			Description: "Track record in prior ventures or roles",
		},
		"red_flags": {
			Type:        "ARRAY",
			Description: "Potential concerns or risks related to this founder",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"linkedin_url": {
			Type:        "STRING",
			Description: "Link to LinkedIn profile",
		},
	},
	Required: []string{"name"},
}

// FoundersSectionSchema validates the founders section.
var FoundersSectionSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"founders": {
			Type:        "ARRAY",
			Description: "List of all founders with their researched profiles",
			Items:       founderSchema,
		},
		"overall_assessment": {
			Type:        "STRING",
			Description: "Synthesis of the founding team as a whole",
		},
		"strengths": {
			Type:        "ARRAY",
			Description: "Key strengths across the founding team",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"risks": {
			Type:        "ARRAY",
			Description: "Key risks across the founding team",
			Items:       &genai.Schema{Type: "STRING"},
		},
	},
}

// CompanyOverviewSectionSchema validates the company overview section.
var CompanyOverviewSectionSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"what_they_do": {
			Type:        "STRING",
			Description: "Plain-language summary of what the company does",
		},
		"history": {
			Type:        "STRING",
			Description: "Company history and origin story",
		},
		"founded_year": {
			Type:        "STRING",
			Description: "Year the company was founded",
		},
		"headquarters": {
			Type:        "STRING",
			Description: "Headquarters location",
		},
		"funding_rounds": {
			Type:        "ARRAY",
			Description: "Known funding rounds with amounts and lead investors",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"key_metrics": {
			Type:        "ARRAY",
			Description: "Headline metrics such as revenue, headcount, or user counts",
			Items:       &genai.Schema{Type: "STRING"},
		},
	},
}

// ProductSectionSchema validates the product section.
var ProductSectionSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"name": {
			Type:        "STRING",
			Description: "Product name",
		},
		"description": {
			Type:        "STRING",
			Description: "What the product is and the problem it solves",
		},
		"key_features": {
			Type:        "ARRAY",
			Description: "Most important product capabilities",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"technology": {
			Type:        "STRING",
			Description: "Underlying technology and technical approach",
		},
		"pricing_model": {
			Type:        "STRING",
			Description: "How the product is priced and sold",
		},
		"customers": {
			Type:        "ARRAY",
			Description: "Known customers or customer segments",
			Items:       &genai.Schema{Type: "STRING"},
		},
	},
}

// MarketSectionSchema validates the market section.
var MarketSectionSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"total_addressable_market": {
			Type:        "STRING",
			Description: "Total addressable market size with sourcing",
		},
		"serviceable_market": {
			Type:        "STRING",
			Description: "Serviceable market size for the company's current offering",
		},
		"growth_rate": {
			Type:        "STRING",
			Description: "Market growth rate and trajectory",
		},
		"trends": {
			Type:        "ARRAY",
			Description: "Market trends relevant to the investment thesis",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"target_customers": {
			Type:        "STRING",
			Description: "Who the company sells to",
		},
	},
}

// CompetitiveLandscapeSectionSchema validates the competitive landscape section.
var CompetitiveLandscapeSectionSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"competitors": {
			Type:        "ARRAY",
			Description: "Direct and adjacent competitors",
			Items: &genai.Schema{
				Type: "OBJECT",
				Properties: map[string]*genai.Schema{
					"name": {
						Type:        "STRING",
						Description: "Competitor name",
					},
					"description": {
						Type:        "STRING",
						Description: "What the competitor does",
					},
					"differentiation": {
						Type:        "STRING",
						Description: "How the company differentiates against this competitor",
					},
				},
				Required: []string{"name"},
			},
		},
		"market_position": {
			Type:        "STRING",
			Description: "Where the company sits in the competitive landscape",
		},
		"moat": {
			Type:        "STRING",
			Description: "Defensibility and durable advantages, if any",
		},
	},
}

// WhyInterestingSectionSchema validates the why-interesting section.
var WhyInterestingSectionSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"investment_highlights": {
			Type:        "ARRAY",
			Description: "Reasons this company is a compelling investment",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"differentiators": {
			Type:        "ARRAY",
			Description: "What sets this company apart",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"open_questions": {
			Type:        "ARRAY",
			Description: "Unresolved questions an investor should dig into",
			Items:       &genai.Schema{Type: "STRING"},
		},
	},
}

// ReportConclusionSectionSchema validates the conclusion section.
var ReportConclusionSectionSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"summary": {
			Type:        "STRING",
			Description: "Overall summary of the diligence findings",
		},
		"key_risks": {
			Type:        "ARRAY",
			Description: "Most significant risks identified across all sections",
			Items:       &genai.Schema{Type: "STRING"},
		},
		"recommendation": {
			Type:        "STRING",
			Description: "Investment recommendation with rationale",
		},
		"conviction_level": {
			Type:        "STRING",
			Description: "Conviction in the recommendation",
			Enum:        []string{"low", "medium", "high"},
		},
	},
}

var sectionSchemas = map[report.Section]*genai.Schema{
	report.SectionCompanyOverview:      CompanyOverviewSectionSchema,
	report.SectionWhyInteresting:       WhyInterestingSectionSchema,
	report.SectionProduct:              ProductSectionSchema,
	report.SectionCompetitiveLandscape: CompetitiveLandscapeSectionSchema,
	report.SectionMarket:               MarketSectionSchema,
	report.SectionFounders:             FoundersSectionSchema,
	report.SectionReportConclusion:     ReportConclusionSectionSchema,
}

// ForSection returns the response schema registered for a section.
func ForSection(s report.Section) (*genai.Schema, error) {
	schema, ok := sectionSchemas[s]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownSection, "no schema for %q", s)
	}
	return schema, nil
}
