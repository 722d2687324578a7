package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldOrder(t *testing.T) {
	assert.Equal(t, []string{"id", "title"}, FieldOrder(nil))
	assert.Equal(t, []string{"id", "title", "status", "priority"},
		FieldOrder([]string{"status", "priority"}))
	assert.Equal(t, []string{"id", "title", "status"},
		FieldOrder([]string{"id", "status", "title", "status", ""}))
}

func TestFormatTOON(t *testing.T) {
	formatter := NewFormatter(time.UTC)

	rows := []map[string]any{
		{"id": "rec_1", "title": "Task 1", "status": "active", "priority": 1.0},
		{"id": "rec_2", "title": "Task 2", "status": "pending"},
	}
	fields := FieldOrder([]string{"status", "priority"})

	out := formatter.FormatTOON(rows, fields, ResultCounts{Returned: 2, Filtered: 2, Total: 5})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2 of 2 filtered (5 total)", lines[0])
	assert.Equal(t, "records[2]{id|title|status|priority}:", lines[1])
	assert.Equal(t, "rec_1|Task 1|active|1", lines[2])
	assert.Equal(t, "rec_2|Task 2|pending|", lines[3], "missing fields render empty")
}

func TestFormatTOONEmpty(t *testing.T) {
	formatter := NewFormatter(time.UTC)

	out := formatter.FormatTOON(nil, FieldOrder(nil), ResultCounts{})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0 of 0 filtered (0 total)", lines[0])
	assert.Equal(t, "records[0]{id|title}:", lines[1])
}

func TestRenderValue(t *testing.T) {
	formatter := NewFormatter(time.UTC)

	assert.Equal(t, "", formatter.RenderValue(nil))
	assert.Equal(t, "hello", formatter.RenderValue("hello"))
	assert.Equal(t, "3.5", formatter.RenderValue(3.5))
	assert.Equal(t, "3", formatter.RenderValue(3.0))
	assert.Equal(t, "7", formatter.RenderValue(int64(7)))
	assert.Equal(t, "true", formatter.RenderValue(true))
	assert.Equal(t, "a, b, c", formatter.RenderValue([]any{"a", "b", "c"}))
	assert.Equal(t, `{"k":"v"}`, formatter.RenderValue(map[string]any{"k": "v"}))
}

func TestRenderValueNoTruncation(t *testing.T) {
	formatter := NewFormatter(time.UTC)

	long := strings.Repeat("x", 10000)
	assert.Equal(t, long, formatter.RenderValue(long))
}

func TestRenderValueUnwrapsRichDoc(t *testing.T) {
	formatter := NewFormatter(time.UTC)

	composite := map[string]any{
		"data":    map[string]any{"type": "doc"},
		"html":    "<p>Hi</p>",
		"preview": "Hi",
		"yjsData": "AAE=",
	}
	assert.Equal(t, "<p>Hi</p>", formatter.RenderValue(composite))

	// The stored JSON-text form a query returns unwraps the same way.
	stored, err := json.Marshal(composite)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", formatter.RenderValue(string(stored)))
}

func TestRenderValueDateTime(t *testing.T) {
	est, err := ParseTimezone("-0500")
	require.NoError(t, err)
	formatter := NewFormatter(est)

	assert.Equal(t, "2024-06-01 07:30:00 -0500", formatter.RenderValue("2024-06-01T12:30:00Z"))
	assert.Equal(t, "2024-06-01", formatter.RenderValue("2024-06-01"), "date-only passes through")
	assert.Equal(t, "not a date", formatter.RenderValue("not a date"))
}

func TestFormatJSON(t *testing.T) {
	formatter := NewFormatter(time.UTC)

	rows := []map[string]any{
		{"id": "rec_1", "title": "Task 1", "status": "active", "internal": "hidden"},
	}
	fields := FieldOrder([]string{"status"})

	result := formatter.FormatJSON(rows, fields, ResultCounts{Returned: 1, Filtered: 3, Total: 5})

	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 5, result.TotalCount)
	require.NotNil(t, result.FilteredCount)
	assert.Equal(t, 3, *result.FilteredCount)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "active", result.Items[0]["status"])
	assert.NotContains(t, result.Items[0], "internal", "items carry only selected keys")
}

func TestFormatJSONOmitsFilteredWhenEqual(t *testing.T) {
	formatter := NewFormatter(time.UTC)
	result := formatter.FormatJSON(nil, FieldOrder(nil), ResultCounts{Returned: 0, Filtered: 4, Total: 4})
	assert.Nil(t, result.FilteredCount)
}
