package format

import (
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
)

// paramWhitelist keeps the structure-describing params and drops display
// noise (colors, icons, widths, help docs).
var paramWhitelist = map[string]bool{
	"required":           true,
	"unique":             true,
	"primary":            true,
	"linked_application": true,
	"entries_allowed":    true,
	"choices":            true,
}

// FilterFieldStructure reduces a field descriptor to {slug, label,
// field_type, params?} with whitelisted params only. Each choice keeps
// only its label and value.
func FilterFieldStructure(field smartsuite.FieldDescriptor) map[string]any {
	filtered := map[string]any{
		"slug":       field.Slug,
		"label":      field.Label,
		"field_type": field.FieldType,
	}

	if len(field.Params) == 0 {
		return filtered
	}

	params := map[string]any{}
	for key, value := range field.Params {
		if !paramWhitelist[key] {
			continue
		}
		if key == "choices" {
			params[key] = filterChoices(value)
			continue
		}
		params[key] = value
	}
	if len(params) > 0 {
		filtered["params"] = params
	}
	return filtered
}

// FilterStructure applies FilterFieldStructure to a whole structure.
func FilterStructure(structure smartsuite.Structure) []map[string]any {
	filtered := make([]map[string]any, len(structure))
	for i, field := range structure {
		filtered[i] = FilterFieldStructure(field)
	}
	return filtered
}

func filterChoices(value any) any {
	choices, ok := value.([]any)
	if !ok {
		return value
	}

	filtered := make([]map[string]any, 0, len(choices))
	for _, choice := range choices {
		m, ok := choice.(map[string]any)
		if !ok {
			continue
		}
		kept := map[string]any{}
		if label, ok := m["label"]; ok {
			kept["label"] = label
		}
		if v, ok := m["value"]; ok {
			kept["value"] = v
		}
		filtered = append(filtered, kept)
	}
	return filtered
}
