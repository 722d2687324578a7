package format

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Formatter renders query results for the assistant: a dense pipe-
// delimited text form ("TOON") or a JSON envelope. It is purely
// functional over the rows it receives.
type Formatter struct {
	loc *time.Location
}

// NewFormatter creates a formatter rendering date-times in loc. A nil
// location means UTC.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// FieldOrder builds the output field list: id, title, then the requested
// fields in caller order, duplicates elided.
func FieldOrder(requested []string) []string {
	fields := []string{"id", "title"}
	seen := map[string]bool{"id": true, "title": true}
	for _, field := range requested {
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		fields = append(fields, field)
	}
	return fields
}

// ResultCounts carries the three counters of a query result.
type ResultCounts struct {
	Returned int
	Filtered int
	Total    int
}

// FormatTOON renders rows as the dense tabular text form:
//
//	N of M filtered (T total)
//	records[N]{col1|col2|...}:
//	v1|v2|...
//
// Missing fields render as empty cells. Rich-document composites are
// unwrapped before rendering.
func (f *Formatter) FormatTOON(rows []map[string]any, fields []string, counts ResultCounts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d filtered (%d total)\n", counts.Returned, counts.Filtered, counts.Total)
	fmt.Fprintf(&b, "records[%d]{%s}:\n", len(rows), strings.Join(fields, "|"))

	for _, row := range rows {
		cells := make([]string, len(fields))
		for i, field := range fields {
			cells[i] = f.RenderValue(row[field])
		}
		b.WriteString(strings.Join(cells, "|"))
		b.WriteByte('\n')
	}
	return b.String()
}

// JSONResult is the JSON envelope shape.
type JSONResult struct {
	Count         int              `json:"count"`
	TotalCount    int              `json:"total_count"`
	FilteredCount *int             `json:"filtered_count,omitempty"`
	Items         []map[string]any `json:"items"`
}

// FormatJSON renders rows as the JSON envelope, keeping only the selected
// fields per item. The filtered count is omitted when it equals the
// total.
func (f *Formatter) FormatJSON(rows []map[string]any, fields []string, counts ResultCounts) JSONResult {
	items := make([]map[string]any, len(rows))
	for i, row := range rows {
		item := make(map[string]any, len(fields))
		for _, field := range fields {
			if value, ok := row[field]; ok {
				item[field] = UnwrapRichDoc(value)
			}
		}
		items[i] = item
	}

	result := JSONResult{
		Count:      counts.Returned,
		TotalCount: counts.Total,
		Items:      items,
	}
	if counts.Filtered != counts.Total {
		filtered := counts.Filtered
		result.FilteredCount = &filtered
	}
	return result
}

// RenderValue stringifies one cell: nil renders empty, arrays join with
// ", ", nested mappings render as their JSON text, date-time strings
// re-render in the configured zone, and plain strings are emitted
// verbatim without truncation.
func (f *Formatter) RenderValue(value any) string {
	value = UnwrapRichDoc(value)

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if looksLikeDateTime(v) {
			return RenderDateTime(v, f.loc)
		}
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = f.RenderValue(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
