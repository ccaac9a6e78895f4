// Package render fills {{key}} placeholders in page templates.
//
// Substitution is literal: values are formatted with fmt.Sprint and inserted
// without escaping, there is no nesting or logic, and placeholders with no
// matching key are left in place.
package render

import (
	"fmt"
	"sort"
	"strings"
)

// Format replaces every {{key}} in tmpl with the matching value from data
func Format(tmpl string, data map[string]any) string {
	if len(data) == 0 {
		return tmpl
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	// Sorted so the replacer is built the same way every time
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(data[k]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
