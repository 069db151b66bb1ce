// Package template provides dotted-path data access and placeholder
// interpolation for dynamic node configuration.
package template

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// placeholder matches {{dotted.path}} tokens, optionally wrapped in quotes.
// The quoted form lets a template splice non-string values into a JSON body.
var placeholder = regexp.MustCompile(`"\{\{\s*([^{}]+?)\s*\}\}"|\{\{\s*([^{}]+?)\s*\}\}`)

// Lookup reads a value at a dotted path from data. The second return is
// false when the path does not resolve.
func Lookup(data any, path string) (any, bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}

	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return nil, false
	}

	return result.Value(), true
}

// Set writes a value at a dotted path into dst, creating intermediate
// objects as needed. Existing non-object intermediates are overwritten.
func Set(dst map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := dst

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}

		current = next
	}

	current[parts[len(parts)-1]] = value
}

// Render resolves every {{dotted.path}} placeholder in input against data.
// A quoted placeholder whose value is not a string is replaced by the
// value's JSON encoding, quotes included, so numbers and objects land in a
// JSON body untyped-quoted. Unresolved placeholders collapse to an empty
// substitution, never an error.
func Render(input string, data any) string {
	if !strings.Contains(input, "{{") {
		return input
	}

	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("{}")
	}

	return placeholder.ReplaceAllStringFunc(input, func(match string) string {
		quoted := strings.HasPrefix(match, `"`)

		groups := placeholder.FindStringSubmatch(match)

		path := groups[1]
		if path == "" {
			path = groups[2]
		}

		result := gjson.GetBytes(raw, path)
		if !result.Exists() {
			if quoted {
				return `""`
			}

			return ""
		}

		if quoted {
			if result.Type == gjson.String {
				return `"` + result.String() + `"`
			}

			return result.Raw
		}

		return result.String()
	})
}
