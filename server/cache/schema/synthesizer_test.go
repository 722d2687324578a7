package schema

import (
	"regexp"
	"strings"
	"testing"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnTypeFor(t *testing.T) {
	tests := []struct {
		fieldType string
		want      ColumnType
	}{
		{"textfield", ColumnText},
		{"richtextarea", ColumnText},
		{"singleselect", ColumnText},
		{"multipleselect", ColumnText},
		{"linkedrecord", ColumnText},
		{"duedate", ColumnText},
		{"daterange", ColumnText},
		{"status", ColumnText},
		{"statusfield", ColumnText},
		{"emailfield", ColumnText},
		{"phonefield", ColumnText},
		{"autonumber", ColumnInteger},
		{"comments_count", ColumnInteger},
		{"yesno", ColumnInteger},
		{"number", ColumnReal},
		{"numberfield", ColumnReal},
		{"currency", ColumnReal},
		{"percent", ColumnReal},
		{"rating", ColumnReal},
		{"duration", ColumnReal},
		{"NUMBER", ColumnReal},
		{"DueDate", ColumnText},
		{"unknown_custom_type", ColumnText},
		{"", ColumnText},
	}

	for _, tt := range tests {
		t.Run(tt.fieldType, func(t *testing.T) {
			assert.Equal(t, tt.want, ColumnTypeFor(tt.fieldType))
		})
	}
}

var columnNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func TestSanitizeColumnName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"title", "title"},
		{"Title", "title"},
		{"s3f1a2b", "s3f1a2b"},
		{"due-date", "due_date"},
		{"first name", "first_name"},
		{"weird;drop table", "weird_drop_table"},
		{"3rd_party", "f_3rd_party"},
		{"ключ", "____"},
		{"", "_"},
		{"!!!", "___"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeColumnName(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, columnNamePattern, got)
			assert.NotContains(t, got, ";")
			assert.NotContains(t, got, "'")
			assert.NotContains(t, got, `"`)
			assert.NotContains(t, got, "`")
			assert.NotContains(t, got, "-")
		})
	}
}

func TestSanitizeTableName(t *testing.T) {
	assert.Equal(t, "tbl_A", SanitizeTableName("tbl_A"))
	assert.Equal(t, "tbl_A_2", SanitizeTableName("tbl A-2"))
	assert.Equal(t, "_", SanitizeTableName(""))
	assert.Equal(t, "___", SanitizeTableName("!!!"))
}

func structureOf(fields ...smartsuite.FieldDescriptor) smartsuite.Structure {
	return fields
}

func TestSynthesizeBasic(t *testing.T) {
	structure := structureOf(
		smartsuite.FieldDescriptor{Slug: "title", Label: "Title", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "status", Label: "Status", FieldType: "statusfield"},
		smartsuite.FieldDescriptor{Slug: "priority", Label: "Priority", FieldType: "numberfield"},
	)

	tableSchema := Synthesize("tbl_A", structure)
	assert.Equal(t, "cache_tbl_A", tableSchema.TableName)
	require.Len(t, tableSchema.Columns, 4)

	title := tableSchema.Columns[0]
	assert.Equal(t, "title", title.Name)
	assert.True(t, title.Indexed, "title slug is always indexed")

	statusValue := tableSchema.Columns[1]
	assert.Equal(t, "status", statusValue.Name)
	assert.Equal(t, ExtractStatusValue, statusValue.Extract)
	assert.True(t, statusValue.Indexed)

	statusUpdated := tableSchema.Columns[2]
	assert.Equal(t, "status_updated_on", statusUpdated.Name)
	assert.Equal(t, ExtractStatusUpdatedOn, statusUpdated.Extract)
	assert.False(t, statusUpdated.Indexed)

	priority := tableSchema.Columns[3]
	assert.Equal(t, ColumnReal, priority.Type)
	assert.True(t, priority.Indexed)
}

func TestSynthesizeActorStampSplit(t *testing.T) {
	structure := structureOf(
		smartsuite.FieldDescriptor{Slug: "first_created", FieldType: "firstcreated"},
		smartsuite.FieldDescriptor{Slug: "last_updated", FieldType: "lastupdated"},
	)

	tableSchema := Synthesize("tbl_B", structure)
	require.Len(t, tableSchema.Columns, 4)

	assert.Equal(t, "first_created_on", tableSchema.Columns[0].Name)
	assert.False(t, tableSchema.Columns[0].Indexed, "firstcreated is never indexed")
	assert.Equal(t, "first_created_by", tableSchema.Columns[1].Name)

	assert.Equal(t, "last_updated_on", tableSchema.Columns[2].Name)
	assert.True(t, tableSchema.Columns[2].Indexed, "lastupdated is indexed")
	assert.Equal(t, "last_updated_by", tableSchema.Columns[3].Name)
}

func TestSynthesizeIndexRules(t *testing.T) {
	structure := structureOf(
		smartsuite.FieldDescriptor{Slug: "notes", FieldType: "richtextarea", Params: map[string]any{"primary": true}},
		smartsuite.FieldDescriptor{Slug: "summary", FieldType: "textarea"},
		smartsuite.FieldDescriptor{Slug: "attachments", FieldType: "files"},
		smartsuite.FieldDescriptor{Slug: "owner", FieldType: "assignedto"},
		smartsuite.FieldDescriptor{Slug: "headline", FieldType: "textfield", Params: map[string]any{"primary": true}},
	)

	tableSchema := Synthesize("tbl_C", structure)

	byName := map[string]Column{}
	for _, col := range tableSchema.Columns {
		byName[col.Name] = col
	}

	assert.False(t, byName["notes"].Indexed, "never-index types win over primary")
	assert.False(t, byName["summary"].Indexed)
	assert.False(t, byName["attachments"].Indexed)
	assert.True(t, byName["owner"].Indexed)
	assert.True(t, byName["headline"].Indexed, "primary flag indexes")
}

func TestSynthesizeDeduplicatesNames(t *testing.T) {
	structure := structureOf(
		smartsuite.FieldDescriptor{Slug: "due date", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "due-date", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "due_date", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "id", FieldType: "textfield"},
	)

	tableSchema := Synthesize("tbl_D", structure)
	require.Len(t, tableSchema.Columns, 4)

	assert.Equal(t, "due_date", tableSchema.Columns[0].Name)
	assert.Equal(t, "due_date_2", tableSchema.Columns[1].Name)
	assert.Equal(t, "due_date_3", tableSchema.Columns[2].Name)
	assert.Equal(t, "id_2", tableSchema.Columns[3].Name, "system columns are reserved")

	seen := map[string]bool{}
	for _, col := range tableSchema.Columns {
		assert.False(t, seen[col.Name], "duplicate column name %s", col.Name)
		seen[col.Name] = true
	}
}

func TestFingerprintDetectsStructureChange(t *testing.T) {
	base := structureOf(
		smartsuite.FieldDescriptor{Slug: "title", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "count", FieldType: "number"},
	)

	a := Synthesize("tbl_E", base)
	b := Synthesize("tbl_E", base)
	assert.Equal(t, a.Fingerprint, b.Fingerprint, "same structure, same fingerprint")

	changed := structureOf(
		smartsuite.FieldDescriptor{Slug: "title", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "count", FieldType: "textfield"},
	)
	c := Synthesize("tbl_E", changed)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint, "type change, new fingerprint")
}

func TestCreateTableDDL(t *testing.T) {
	tableSchema := Synthesize("tbl_A", structureOf(
		smartsuite.FieldDescriptor{Slug: "title", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "done", FieldType: "yesno"},
	))

	ddl := tableSchema.CreateTableDDL()
	assert.True(t, strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS cache_tbl_A "))
	assert.Contains(t, ddl, "id TEXT PRIMARY KEY")
	assert.Contains(t, ddl, "title TEXT")
	assert.Contains(t, ddl, "done INTEGER")
	assert.Contains(t, ddl, "cached_at TEXT NOT NULL")
	assert.Contains(t, ddl, "expires_at TEXT NOT NULL")
}

func TestCreateIndexDDL(t *testing.T) {
	tableSchema := Synthesize("tbl_A", structureOf(
		smartsuite.FieldDescriptor{Slug: "title", FieldType: "textfield"},
		smartsuite.FieldDescriptor{Slug: "notes", FieldType: "textarea"},
	))

	statements := tableSchema.CreateIndexDDL()
	require.Len(t, statements, 2, "expires_at plus title")
	assert.Contains(t, statements[0], "idx_cache_tbl_A_expires_at")
	assert.Contains(t, statements[1], "idx_cache_tbl_A_title")
}

func TestColumnFor(t *testing.T) {
	tableSchema := Synthesize("tbl_A", structureOf(
		smartsuite.FieldDescriptor{Slug: "status", FieldType: "status"},
	))

	col, ok := tableSchema.ColumnFor("status")
	require.True(t, ok)
	assert.Equal(t, "status", col.Name, "value column wins for split fields")

	_, ok = tableSchema.ColumnFor("missing")
	assert.False(t, ok)
}
