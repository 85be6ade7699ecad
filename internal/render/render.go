// Package render does flat {{KEY}} substitution of row values into a
// subject/body template. No nesting, no escaping, no template language.
package render

import "strings"

// Render replaces every occurrence of {{KEY}} in template with the row's
// value for KEY. Keys with no matching placeholder are no-ops; placeholders
// with no matching key are left verbatim. Pure function.
func Render(template string, row map[string]string) string {
	out := template
	for key, value := range row {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
