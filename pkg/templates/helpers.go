package templates

import "strings"

// JoinWithAnd joins names with commas and an "and" before the last one.
func JoinWithAnd(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}

	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
