package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/schema"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/store"
)

// Query-specific error codes
var (
	ErrInvalidPredicate = errors.MustNewCode("query.invalid_predicate")
)

// predicate is one field/condition pair awaiting compilation.
type predicate struct {
	slug  string
	value any
}

// Builder assembles a parameterized query over one cache table. Builders
// are immutable: every refinement returns a copy, so partially-built
// queries can be shared and branched safely. Predicates combine with AND.
type Builder struct {
	store       *store.Store
	tableSchema *schema.TableSchema
	predicates  []predicate
	orderSlug   string
	orderDesc   bool
	limit       int
	offset      int
}

// New creates a query builder over a materialized table schema.
func New(s *store.Store, tableSchema *schema.TableSchema) *Builder {
	return &Builder{
		store:       s,
		tableSchema: tableSchema,
		limit:       -1,
		offset:      0,
	}
}

func (b *Builder) clone() *Builder {
	copied := *b
	copied.predicates = make([]predicate, len(b.predicates))
	copy(copied.predicates, b.predicates)
	return &copied
}

// Where adds one predicate. A plain value means equality; a single-key
// operator map selects a comparison. Predicates referencing unknown field
// slugs are dropped at compile time so drifted callers degrade instead of
// failing.
func (b *Builder) Where(slug string, value any) *Builder {
	copied := b.clone()
	copied.predicates = append(copied.predicates, predicate{slug: slug, value: value})
	return copied
}

// Order sets the single ordering. Direction is case-insensitive; anything
// but DESC sorts ascending.
func (b *Builder) Order(slug, direction string) *Builder {
	copied := b.clone()
	copied.orderSlug = slug
	copied.orderDesc = strings.EqualFold(strings.TrimSpace(direction), "DESC")
	return copied
}

// Limit caps the result set.
func (b *Builder) Limit(n int) *Builder {
	copied := b.clone()
	copied.limit = n
	return copied
}

// Offset skips the first n rows.
func (b *Builder) Offset(n int) *Builder {
	copied := b.clone()
	copied.offset = n
	return copied
}

// compileWhere builds the WHERE clause. Every query pins expires_at > now
// so expired rows are invisible without eviction.
func (b *Builder) compileWhere() (string, []any, error) {
	clauses := []string{"expires_at > ?"}
	args := []any{nowUTC()}

	for _, p := range b.predicates {
		columnName := ""
		if col, ok := b.tableSchema.ColumnFor(p.slug); ok {
			columnName = col.Name
		} else if p.slug == "id" {
			columnName = "id"
		} else {
			continue
		}
		clause, clauseArgs, err := compileOperator(columnName, p.value)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}

	return strings.Join(clauses, " AND "), args, nil
}

// resolveOrderColumn maps the order slug to a physical column. Slug lookup
// wins; a raw column name is accepted as a fallback (id, cached_at).
func (b *Builder) resolveOrderColumn() (string, bool) {
	if b.orderSlug == "" {
		return "", false
	}
	if col, ok := b.tableSchema.ColumnFor(b.orderSlug); ok {
		return col.Name, true
	}
	switch b.orderSlug {
	case "id", "cached_at", "expires_at":
		return b.orderSlug, true
	}
	for _, col := range b.tableSchema.Columns {
		if col.Name == b.orderSlug {
			return col.Name, true
		}
	}
	return "", false
}

// Execute runs the query and returns the matching rows as generic maps.
func (b *Builder) Execute(ctx context.Context) ([]map[string]any, error) {
	where, args, err := b.compileWhere()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(b.tableSchema.TableName)
	sb.WriteString(" WHERE ")
	sb.WriteString(where)

	if column, ok := b.resolveOrderColumn(); ok {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(column)
		if b.orderDesc {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}

	if b.limit >= 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	if b.offset > 0 {
		if b.limit < 0 {
			sb.WriteString(" LIMIT -1")
		}
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}

	return b.store.QueryRows(ctx, sb.String(), args...)
}

// Count runs the query as COUNT(*), ignoring limit and offset.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	where, args, err := b.compileWhere()
	if err != nil {
		return 0, err
	}
	return b.store.QueryScalar(ctx, "SELECT COUNT(*) FROM "+b.tableSchema.TableName+" WHERE "+where, args...)
}
