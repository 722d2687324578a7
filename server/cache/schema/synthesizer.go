package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
)

// columnTypeByFieldType is the exhaustive field-type taxonomy. Tags not
// present here default to TEXT.
var columnTypeByFieldType = map[string]ColumnType{
	// Text-backed fields
	"textfield":      ColumnText,
	"textarea":       ColumnText,
	"richtextarea":   ColumnText,
	"fullname":       ColumnText,
	"email":          ColumnText,
	"phone":          ColumnText,
	"address":        ColumnText,
	"linkurl":        ColumnText,
	"link":           ColumnText,
	"date":           ColumnText,
	"time":           ColumnText,
	"datetime":       ColumnText,
	"daterange":      ColumnText,
	"duedate":        ColumnText,
	"firstcreated":   ColumnText,
	"lastupdated":    ColumnText,
	"singleselect":   ColumnText,
	"multipleselect": ColumnText,
	"tag":            ColumnText,
	"linkedrecord":   ColumnText,
	"assignedto":     ColumnText,
	"file":           ColumnText,
	"files":          ColumnText,
	"image":          ColumnText,
	"images":         ColumnText,
	"signature":      ColumnText,
	"button":         ColumnText,
	"ipaddress":      ColumnText,
	"colorpicker":    ColumnText,
	"socialnetwork":  ColumnText,
	"status":         ColumnText,
	"formula":        ColumnText,
	"lookup":         ColumnText,
	"subitems":       ColumnText,
	"checklist":      ColumnText,
	"vote":           ColumnText,

	// Integer-backed fields
	"autonumber":     ColumnInteger,
	"comments_count": ColumnInteger,
	"commentscount":  ColumnInteger,
	"yesno":          ColumnInteger,

	// Real-backed fields
	"number":   ColumnReal,
	"currency": ColumnReal,
	"percent":  ColumnReal,
	"rating":   ColumnReal,
	"duration": ColumnReal,
}

// indexableFieldTypes drive index selection on the value column.
var indexableFieldTypes = map[string]bool{
	"status":       true,
	"duedate":      true,
	"daterange":    true,
	"lastupdated":  true,
	"singleselect": true,
	"yesno":        true,
	"assignedto":   true,
	"currency":     true,
	"number":       true,
	"percent":      true,
	"rating":       true,
}

// neverIndexFieldTypes override every other index rule.
var neverIndexFieldTypes = map[string]bool{
	"richtextarea": true,
	"textarea":     true,
	"formula":      true,
	"file":         true,
	"files":        true,
	"image":        true,
	"images":       true,
	"firstcreated": true,
}

// normalizeFieldType lowercases the tag and strips a trailing "field"
// variant (statusfield, numberfield, emailfield) down to its base tag.
func normalizeFieldType(fieldType string) string {
	tag := strings.ToLower(strings.TrimSpace(fieldType))
	if _, ok := columnTypeByFieldType[tag]; ok {
		return tag
	}
	if trimmed := strings.TrimSuffix(tag, "field"); trimmed != tag {
		if _, ok := columnTypeByFieldType[trimmed]; ok {
			return trimmed
		}
	}
	return tag
}

// ColumnTypeFor maps a field type to a storage column type. Unknown and
// empty tags map to TEXT.
func ColumnTypeFor(fieldType string) ColumnType {
	if columnType, ok := columnTypeByFieldType[normalizeFieldType(fieldType)]; ok {
		return columnType
	}
	return ColumnText
}

// shouldIndex decides whether the value column of a field gets an index.
func shouldIndex(field smartsuite.FieldDescriptor) bool {
	tag := normalizeFieldType(field.FieldType)
	if neverIndexFieldTypes[tag] {
		return false
	}
	if indexableFieldTypes[tag] {
		return true
	}
	if field.Slug == "title" {
		return true
	}
	return field.IsPrimary()
}

// CacheTableName derives the storage table name for an upstream table id.
func CacheTableName(tableID string) string {
	return "cache_" + SanitizeTableName(tableID)
}

// Synthesize turns a table structure into a storage schema: column list,
// index set and a fingerprint for structure-change detection. System
// columns (id, cached_at, expires_at) are reserved before field columns are
// named, so a field slug colliding with them gets a dedup suffix.
func Synthesize(tableID string, structure smartsuite.Structure) *TableSchema {
	used := map[string]bool{
		"id":         true,
		"cached_at":  true,
		"expires_at": true,
	}

	tableSchema := &TableSchema{
		TableID:   tableID,
		TableName: CacheTableName(tableID),
	}

	for _, field := range structure {
		tag := normalizeFieldType(field.FieldType)
		base := SanitizeColumnName(field.Slug)
		indexed := shouldIndex(field)

		switch tag {
		case "status":
			tableSchema.Columns = append(tableSchema.Columns,
				Column{
					Slug:    field.Slug,
					Name:    dedupeName(base, used),
					Type:    ColumnText,
					Indexed: indexed,
					Extract: ExtractStatusValue,
				},
				Column{
					Slug:    field.Slug,
					Name:    dedupeName(base+"_updated_on", used),
					Type:    ColumnText,
					Extract: ExtractStatusUpdatedOn,
				},
			)
		case "firstcreated", "lastupdated":
			tableSchema.Columns = append(tableSchema.Columns,
				Column{
					Slug:    field.Slug,
					Name:    dedupeName(base+"_on", used),
					Type:    ColumnText,
					Indexed: indexed,
					Extract: ExtractStampOn,
				},
				Column{
					Slug:    field.Slug,
					Name:    dedupeName(base+"_by", used),
					Type:    ColumnText,
					Extract: ExtractStampBy,
				},
			)
		case "yesno":
			tableSchema.Columns = append(tableSchema.Columns, Column{
				Slug:    field.Slug,
				Name:    dedupeName(base, used),
				Type:    ColumnInteger,
				Indexed: indexed,
				Extract: ExtractBool,
			})
		default:
			tableSchema.Columns = append(tableSchema.Columns, Column{
				Slug:    field.Slug,
				Name:    dedupeName(base, used),
				Type:    ColumnTypeFor(field.FieldType),
				Indexed: indexed,
				Extract: ExtractScalar,
			})
		}
	}

	tableSchema.Fingerprint = fingerprint(tableSchema)
	return tableSchema
}

// fingerprint hashes the ordered (slug, column, type, indexed) tuples.
func fingerprint(tableSchema *TableSchema) string {
	hasher := sha256.New()
	for _, col := range tableSchema.Columns {
		fmt.Fprintf(hasher, "%s:%s:%s:%t\n", col.Slug, col.Name, col.Type, col.Indexed)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// CreateTableDDL emits the CREATE TABLE statement for the schema.
func (s *TableSchema) CreateTableDDL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(s.TableName)
	b.WriteString(" (id TEXT PRIMARY KEY")
	for _, col := range s.Columns {
		b.WriteString(", ")
		b.WriteString(col.Name)
		b.WriteString(" ")
		b.WriteString(string(col.Type))
	}
	b.WriteString(", cached_at TEXT NOT NULL, expires_at TEXT NOT NULL)")
	return b.String()
}

// CreateIndexDDL emits one CREATE INDEX statement per indexed column plus
// the expires_at index every query filters on.
func (s *TableSchema) CreateIndexDDL() []string {
	statements := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_expires_at ON %s (expires_at)", s.TableName, s.TableName),
	}
	for _, col := range s.Columns {
		if !col.Indexed {
			continue
		}
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			s.TableName, col.Name, s.TableName, col.Name,
		))
	}
	return statements
}
