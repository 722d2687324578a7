package format

import (
	"encoding/json"
	"strings"
)

// Composite rich-document values carry {data, html, preview, yjsData}.
// The cache stores the full composite; this boundary unwraps the rendered
// html on the way out so callers needing the structured form can still
// fetch the raw row. Values arrive in two shapes: the decoded mapping
// (straight from an upstream payload) and the JSON text a query returns,
// since the storage engine serializes composites into their column.

// asRichDoc recognizes a composite rich document by structural test: a
// mapping holding at least the data and html keys, in either its decoded
// or its stored JSON-text form.
func asRichDoc(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		if isRichDocMap(v) {
			return v, true
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if !strings.HasPrefix(trimmed, "{") ||
			!strings.Contains(trimmed, `"data"`) ||
			!strings.Contains(trimmed, `"html"`) {
			return nil, false
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, false
		}
		if isRichDocMap(decoded) {
			return decoded, true
		}
	}
	return nil, false
}

func isRichDocMap(m map[string]any) bool {
	_, hasData := m["data"]
	_, hasHTML := m["html"]
	return hasData && hasHTML
}

// IsRichDoc reports whether the value is a composite rich document.
func IsRichDoc(value any) bool {
	_, ok := asRichDoc(value)
	return ok
}

// UnwrapRichDoc replaces a composite rich document with its bare html
// string (empty when the html leaf is not a string). Every other value,
// including mappings that carry html without data, passes through
// untouched.
func UnwrapRichDoc(value any) any {
	doc, ok := asRichDoc(value)
	if !ok {
		return value
	}
	html, _ := doc["html"].(string)
	return html
}

// SanitizeRecord unwraps every composite rich-document value of a record
// in place and returns the record.
func SanitizeRecord(record map[string]any) map[string]any {
	for key, value := range record {
		record[key] = UnwrapRichDoc(value)
	}
	return record
}
