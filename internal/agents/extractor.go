package agents

import (
	"encoding/json"
	"regexp"
	"strings"

	"diligence/pkg/errors"
)

// ExtractionPolicy controls how parsing failures are handled.
type ExtractionPolicy int

const (
	// PolicyLenient swallows parse failures and leaves the destination at its
	// zero value. Used in the batch pipeline where one bad model response
	// must not sink the whole run.
	PolicyLenient ExtractionPolicy = iota

	// PolicyStrict surfaces parse failures as ErrExtractionFailed.
	PolicyStrict
)

var (
	jsonFenceOpen  = regexp.MustCompile(`(?m)^` + "```" + `json\s*\n?`)
	mdFenceOpen    = regexp.MustCompile(`(?m)^` + "```" + `markdown\s*\n?`)
	fenceClose     = regexp.MustCompile(`(?m)\n?` + "```" + `\s*$`)
	horizontalRule = regexp.MustCompile(`(?m)^[-*]{3,}\s*$`)
	tripleBlank    = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// CleanJSON strips markdown fences and isolates the first balanced JSON
// object in a model response.
func CleanJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = jsonFenceOpen.ReplaceAllString(cleaned, "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")

	// Find the first balanced {...} block
	start := -1
	braceCount := 0
	for i, ch := range cleaned {
		if ch == '{' {
			if start == -1 {
				start = i
			}
			braceCount++
		} else if ch == '}' {
			braceCount--
			if braceCount == 0 && start != -1 {
				return cleaned[start : i+1]
			}
		}
	}

	return strings.TrimSpace(cleaned)
}

// ExtractInto parses a model response into dest. Under PolicyLenient a
// response that cannot be parsed leaves dest untouched and returns nil, so
// callers get the zero value of their target type.
func ExtractInto(raw string, dest interface{}, policy ExtractionPolicy) error {
	cleaned := CleanJSON(raw)
	if cleaned == "" {
		if policy == PolicyStrict {
			return errors.Wrap(errors.ErrExtractionFailed, "empty model response")
		}
		return nil
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		if policy == PolicyStrict {
			return errors.Wrapf(errors.ErrExtractionFailed, "could not parse JSON: %v", err)
		}
		return nil
	}

	return nil
}

// ExtractMap parses a model response into a generic map.
func ExtractMap(raw string, policy ExtractionPolicy) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if err := ExtractInto(raw, &result, policy); err != nil {
		return nil, err
	}
	return result, nil
}

// CleanMarkdown strips markdown code fences and horizontal rules from
// generated report prose.
func CleanMarkdown(content string) string {
	if content == "" {
		return content
	}

	cleaned := strings.TrimSpace(content)
	cleaned = mdFenceOpen.ReplaceAllString(cleaned, "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")
	cleaned = horizontalRule.ReplaceAllString(cleaned, "")
	cleaned = tripleBlank.ReplaceAllString(cleaned, "\n\n")

	return strings.TrimSpace(cleaned)
}
