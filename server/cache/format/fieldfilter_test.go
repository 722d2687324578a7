package format

import (
	"testing"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterFieldStructure(t *testing.T) {
	field := smartsuite.FieldDescriptor{
		Slug:      "status",
		Label:     "Status",
		FieldType: "statusfield",
		Params: map[string]any{
			"primary":            true,
			"required":           false,
			"linked_application": "tbl_B",
			"entries_allowed":    "single",
			"display_format":     "pill",
			"color":              "#fff",
			"width":              120,
			"help_doc":           "pick one",
			"choices": []any{
				map[string]any{"label": "Active", "value": "active", "color": "#0f0", "icon": "check"},
				map[string]any{"label": "Done", "value": "done"},
			},
		},
	}

	filtered := FilterFieldStructure(field)
	assert.Equal(t, "status", filtered["slug"])
	assert.Equal(t, "Status", filtered["label"])
	assert.Equal(t, "statusfield", filtered["field_type"])

	params, ok := filtered["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, params["primary"])
	assert.Equal(t, false, params["required"])
	assert.Equal(t, "tbl_B", params["linked_application"])
	assert.Equal(t, "single", params["entries_allowed"])
	assert.NotContains(t, params, "display_format")
	assert.NotContains(t, params, "color")
	assert.NotContains(t, params, "width")
	assert.NotContains(t, params, "help_doc")

	choices, ok := params["choices"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, choices, 2)
	assert.Equal(t, map[string]any{"label": "Active", "value": "active"}, choices[0])
}

func TestFilterFieldStructureNoParams(t *testing.T) {
	field := smartsuite.FieldDescriptor{Slug: "title", Label: "Title", FieldType: "textfield"}

	filtered := FilterFieldStructure(field)
	assert.NotContains(t, filtered, "params")
}

func TestFilterFieldStructureAllParamsDropped(t *testing.T) {
	field := smartsuite.FieldDescriptor{
		Slug: "x", Label: "X", FieldType: "textfield",
		Params: map[string]any{"color": "#fff"},
	}

	filtered := FilterFieldStructure(field)
	assert.NotContains(t, filtered, "params")
}

func TestFilterStructure(t *testing.T) {
	structure := smartsuite.Structure{
		{Slug: "a", Label: "A", FieldType: "textfield"},
		{Slug: "b", Label: "B", FieldType: "number"},
	}

	filtered := FilterStructure(structure)
	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0]["slug"])
	assert.Equal(t, "b", filtered[1]["slug"])
}
