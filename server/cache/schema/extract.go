package schema

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ExtractValue produces the column value for a raw field value, following
// the column's extraction kind. The second return is false when no value
// should be written (the column stays NULL).
func ExtractValue(col Column, raw any) (any, bool) {
	if raw == nil {
		return nil, false
	}

	switch col.Extract {
	case ExtractBool:
		if truthy(raw) {
			return 1, true
		}
		return 0, true

	case ExtractStatusValue:
		if envelope, ok := raw.(map[string]any); ok {
			value, present := envelope["value"]
			return value, present
		}
		return raw, true

	case ExtractStatusUpdatedOn:
		if envelope, ok := raw.(map[string]any); ok {
			value, present := envelope["updated_on"]
			return value, present
		}
		return nil, false

	case ExtractStampOn:
		if stamp, ok := raw.(map[string]any); ok {
			value, present := stamp["on"]
			return value, present
		}
		// A bare string is the timestamp itself.
		return raw, true

	case ExtractStampBy:
		if stamp, ok := raw.(map[string]any); ok {
			value, present := stamp["by"]
			return value, present
		}
		return nil, false

	default:
		return scalarValue(raw)
	}
}

// scalarValue passes scalars through and JSON-serializes collections and
// maps (composite rich documents are stored whole this way).
func scalarValue(raw any) (any, bool) {
	switch raw.(type) {
	case string, bool, int, int64, float64:
		return raw, true
	}

	// Encode without HTML escaping so stored composites keep their html
	// leaf byte-for-byte.
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(raw); err != nil {
		return nil, false
	}
	return strings.TrimSuffix(buf.String(), "\n"), true
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		return v == "true" || v == "1" || v == "yes"
	default:
		return false
	}
}
