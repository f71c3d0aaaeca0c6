package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Structure holds the text of every report section. It is the single piece of
// shared mutable state in a run: each section's sub-flow writes exactly one
// field, and the assembler only reads.
type Structure struct {
	CompanyOverviewSection      string `json:"company_overview_section"`
	WhyInterestingSection       string `json:"why_interesting_section"`
	ProductSection              string `json:"product_section"`
	CompetitiveLandscapeSection string `json:"competitive_landscape_section"`
	MarketSection               string `json:"market_section"`
	FoundersSection             string `json:"founders_section"`
	ReportConclusionSection     string `json:"report_conclusion_section"`
}

// OrganizerFeedback is the self-graded verdict of the quality-check step.
type OrganizerFeedback struct {
	Feedback     string     `json:"feedback"`
	IsAcceptable TruthyBool `json:"is_acceptable"`
}

// OrganizedData is the organize step's output: company data grouped by category.
type OrganizedData struct {
	Data map[string]interface{} `json:"data"`
}

// Empty reports whether the organize step produced nothing usable.
func (o OrganizedData) Empty() bool {
	return len(o.Data) == 0
}

// TruthyBool tolerates the generation service returning booleans as JSON
// strings ("true", "false", "yes", "no", any case). Unrecognized values
// decode as false.
type TruthyBool bool

func (b *TruthyBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = TruthyBool(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			*b = true
		default:
			*b = false
		}
		return nil
	}

	*b = false
	return nil
}

func (b TruthyBool) Bool() bool { return bool(b) }

// RunStatus is the lifecycle state of a report run.
type RunStatus string

// Run records one end-to-end report generation for audit purposes.
type Run struct {
	ID                  uuid.UUID  `db:"id"`
	CompanyName         string     `db:"company_name"`
	Status              RunStatus  `db:"status"`
	OrganizerIterations int        `db:"organizer_iterations"`
	ReportPath          string     `db:"report_path"`
	StartedAt           time.Time  `db:"started_at"`
	CompletedAt         *time.Time `db:"completed_at"`
}

// Run status constants
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SectionRecord is one section's outcome within a run.
type SectionRecord struct {
	ID        uuid.UUID `db:"id"`
	RunID     uuid.UUID `db:"run_id"`
	Section   string    `db:"section"`
	Content   string    `db:"content"`
	Succeeded bool      `db:"succeeded"`
	CreatedAt time.Time `db:"created_at"`
}
