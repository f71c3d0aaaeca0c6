package schemas

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"
)

// Describe renders a schema's top-level fields as a bullet list suitable for
// embedding in a prompt. Output is sorted by field name so prompts stay
// stable across runs.
func Describe(schema *genai.Schema) string {
	if schema == nil || len(schema.Properties) == 0 {
		return ""
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		prop := schema.Properties[name]
		desc := prop.Description
		if desc == "" {
			desc = strings.ToLower(string(prop.Type))
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, desc)
	}
	return strings.TrimRight(b.String(), "\n")
}
