package mcp

import (
	"context"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/format"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/ttl"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
)

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ensureSolutions serves the solutions list from the cache, fetching
// upstream on miss.
func (s *Server) ensureSolutions(ctx context.Context) error {
	valid, err := s.cache.Valid(ctx, ttl.ScopeSolutions, "")
	if err != nil {
		return err
	}
	if valid {
		return nil
	}

	solutions, err := s.upstream.ListSolutions(ctx)
	if err != nil {
		return err
	}
	_, err = s.cache.PopulateSolutions(ctx, solutions, 0)
	return err
}

func (s *Server) listSolutions(ctx context.Context, args map[string]any) (any, error) {
	if err := s.ensureSolutions(ctx); err != nil {
		return nil, err
	}

	rows, err := s.cache.Store().QueryRows(ctx,
		`SELECT id, name, logo_icon, logo_color FROM cached_solutions WHERE expires_at > ? ORDER BY name`,
		nowRFC3339())
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(rows), "items": rows}, nil
}

// ensureTableList serves the table list from the cache, fetching upstream
// on miss.
func (s *Server) ensureTableList(ctx context.Context, solutionID string) error {
	valid, err := s.cache.Valid(ctx, ttl.ScopeTableList, solutionID)
	if err != nil {
		return err
	}
	if valid {
		return nil
	}

	tables, err := s.upstream.ListTables(ctx, solutionID)
	if err != nil {
		return err
	}
	_, err = s.cache.PopulateTableList(ctx, solutionID, tables, 0)
	return err
}

func (s *Server) listTables(ctx context.Context, args map[string]any) (any, error) {
	solutionID, err := argString(args, "solution_id", false)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTableList(ctx, solutionID); err != nil {
		return nil, err
	}

	query := `SELECT id, solution_id, name FROM cached_tables WHERE expires_at > ? ORDER BY name`
	queryArgs := []any{nowRFC3339()}
	if solutionID != "" {
		query = `SELECT id, solution_id, name FROM cached_tables WHERE expires_at > ? AND solution_id = ? ORDER BY name`
		queryArgs = append(queryArgs, solutionID)
	}

	rows, err := s.cache.Store().QueryRows(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(rows), "items": rows}, nil
}

// tableStructure resolves a table's field structure from the cache,
// refreshing the table list once when the table is unknown.
func (s *Server) tableStructure(ctx context.Context, tableID string) (smartsuite.Structure, error) {
	table, found, err := s.cache.Store().GetCachedTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !found {
		tables, err := s.upstream.ListTables(ctx, "")
		if err != nil {
			return nil, err
		}
		if _, err := s.cache.PopulateTableList(ctx, "", tables, 0); err != nil {
			return nil, err
		}
		table, found, err = s.cache.Store().GetCachedTable(ctx, tableID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.Newf(ErrNotFound, "table %s not found", tableID)
		}
	}
	return table.Structure, nil
}

func (s *Server) getTable(ctx context.Context, args map[string]any) (any, error) {
	tableID, err := argString(args, "table_id", true)
	if err != nil {
		return nil, err
	}

	structure, err := s.tableStructure(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"table_id":  tableID,
		"structure": format.FilterStructure(structure),
	}, nil
}

// ensureRecords guarantees a fresh record cache for the table, recording
// the hit or miss. Miss and expired recover the same way.
func (s *Server) ensureRecords(ctx context.Context, tableID string) error {
	err := s.cache.CheckFresh(ctx, ttl.ScopeRecords, tableID)
	switch {
	case err == nil:
		s.cache.RecordHit(ctx, tableID)
		return nil
	case errors.HasCode(err, cache.ErrCacheMiss), errors.HasCode(err, cache.ErrCacheExpired):
		s.cache.RecordMiss(ctx, tableID)
		return s.populateRecords(ctx, tableID)
	default:
		return err
	}
}

func (s *Server) populateRecords(ctx context.Context, tableID string) error {
	structure, err := s.tableStructure(ctx, tableID)
	if err != nil {
		return err
	}
	records, err := s.upstream.ListRecords(ctx, tableID)
	if err != nil {
		return err
	}
	_, err = s.cache.PopulateRecords(ctx, tableID, structure, records, 0)
	return err
}

func (s *Server) listRecords(ctx context.Context, args map[string]any) (any, error) {
	tableID, err := argString(args, "table_id", true)
	if err != nil {
		return nil, err
	}
	filter, err := argMap(args, "filter")
	if err != nil {
		return nil, err
	}
	orderBy, err := argString(args, "order_by", false)
	if err != nil {
		return nil, err
	}
	direction, err := argString(args, "direction", false)
	if err != nil {
		return nil, err
	}
	limit, err := argInt(args, "limit", 25)
	if err != nil {
		return nil, err
	}
	offset, err := argInt(args, "offset", 0)
	if err != nil {
		return nil, err
	}
	fields, err := argStringList(args, "fields")
	if err != nil {
		return nil, err
	}
	outputFormat, err := argString(args, "format", false)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRecords(ctx, tableID); err != nil {
		return nil, err
	}

	result, err := s.queryRecords(ctx, tableID, filter, orderBy, direction, limit, offset, fields, outputFormat)
	if errors.HasCode(err, cache.ErrCacheMiss) {
		// Populate raced an invalidation; retry once.
		if err := s.populateRecords(ctx, tableID); err != nil {
			return nil, err
		}
		return s.queryRecords(ctx, tableID, filter, orderBy, direction, limit, offset, fields, outputFormat)
	}
	return result, err
}

func (s *Server) queryRecords(ctx context.Context, tableID string, filter map[string]any, orderBy, direction string, limit, offset int, fields []string, outputFormat string) (any, error) {
	builder, err := s.cache.Query(ctx, tableID)
	if err != nil {
		return nil, err
	}

	total, err := builder.Count(ctx)
	if err != nil {
		return nil, err
	}

	filtered := builder
	for slug, condition := range filter {
		filtered = filtered.Where(slug, condition)
	}
	filteredCount, err := filtered.Count(ctx)
	if err != nil {
		return nil, err
	}

	if orderBy != "" {
		filtered = filtered.Order(orderBy, direction)
	}
	rows, err := filtered.Limit(limit).Offset(offset).Execute(ctx)
	if err != nil {
		return nil, err
	}

	fieldList := fields
	if len(fieldList) == 0 {
		entry, found, err := s.cache.Store().GetRegistryEntry(ctx, tableID)
		if err != nil {
			return nil, err
		}
		if found {
			fieldList = entry.ColumnNames()
		}
	}
	counts := format.ResultCounts{Returned: len(rows), Filtered: int(filteredCount), Total: int(total)}
	ordered := format.FieldOrder(fieldList)

	if outputFormat == "json" {
		return s.cache.Formatter().FormatJSON(rows, ordered, counts), nil
	}
	return s.cache.Formatter().FormatTOON(rows, ordered, counts), nil
}

func (s *Server) getRecord(ctx context.Context, args map[string]any) (any, error) {
	tableID, err := argString(args, "table_id", true)
	if err != nil {
		return nil, err
	}
	recordID, err := argString(args, "record_id", true)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRecords(ctx, tableID); err != nil {
		return nil, err
	}

	builder, err := s.cache.Query(ctx, tableID)
	if err != nil {
		return nil, err
	}
	rows, err := builder.Where("id", recordID).Limit(1).Execute(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Newf(ErrNotFound, "record %s not found in table %s", recordID, tableID)
	}
	return format.SanitizeRecord(rows[0]), nil
}

// ensureMembers serves the member list from the cache, fetching upstream
// on miss.
func (s *Server) ensureMembers(ctx context.Context) error {
	valid, err := s.cache.Valid(ctx, ttl.ScopeMembers, "")
	if err != nil {
		return err
	}
	if valid {
		return nil
	}

	members, err := s.upstream.ListMembers(ctx)
	if err != nil {
		return err
	}
	_, err = s.cache.PopulateMembers(ctx, members, 0)
	return err
}

func (s *Server) listMembers(ctx context.Context, args map[string]any) (any, error) {
	if err := s.ensureMembers(ctx); err != nil {
		return nil, err
	}

	rows, err := s.cache.Store().QueryRows(ctx,
		`SELECT id, email, full_name, job_title, department, role, status
		 FROM cached_members WHERE expires_at > ? AND deleted_date = '' ORDER BY full_name`,
		nowRFC3339())
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(rows), "items": rows}, nil
}

func (s *Server) searchMember(ctx context.Context, args map[string]any) (any, error) {
	queryText, err := argString(args, "query", true)
	if err != nil {
		return nil, err
	}
	if err := s.ensureMembers(ctx); err != nil {
		return nil, err
	}

	pattern := "%" + queryText + "%"
	rows, err := s.cache.Store().QueryRows(ctx,
		`SELECT id, email, full_name, job_title, department, role, status
		 FROM cached_members
		 WHERE expires_at > ? AND (full_name LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?)
		 ORDER BY full_name`,
		nowRFC3339(), pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(rows), "items": rows}, nil
}

// ensureTeams serves the team list from the cache, fetching upstream on
// miss.
func (s *Server) ensureTeams(ctx context.Context) error {
	valid, err := s.cache.Valid(ctx, ttl.ScopeTeams, "")
	if err != nil {
		return err
	}
	if valid {
		return nil
	}

	teams, err := s.upstream.ListTeams(ctx)
	if err != nil {
		return err
	}
	_, err = s.cache.PopulateTeams(ctx, teams, 0)
	return err
}

func (s *Server) listTeams(ctx context.Context, args map[string]any) (any, error) {
	if err := s.ensureTeams(ctx); err != nil {
		return nil, err
	}

	rows, err := s.cache.Store().QueryRows(ctx,
		`SELECT id, name, description, member_count FROM cached_teams WHERE expires_at > ? ORDER BY name`,
		nowRFC3339())
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(rows), "items": rows}, nil
}

func (s *Server) getTeam(ctx context.Context, args map[string]any) (any, error) {
	teamID, err := argString(args, "team_id", true)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTeams(ctx); err != nil {
		return nil, err
	}

	rows, err := s.cache.Store().QueryRows(ctx,
		`SELECT id, name, description, member_count, members_json FROM cached_teams WHERE expires_at > ? AND id = ?`,
		nowRFC3339(), teamID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Newf(ErrNotFound, "team %s not found", teamID)
	}
	return rows[0], nil
}

func (s *Server) getCacheStatus(ctx context.Context, args map[string]any) (any, error) {
	return s.cache.Status(ctx)
}

func (s *Server) getAPIStats(ctx context.Context, args map[string]any) (any, error) {
	return s.upstream.Stats(), nil
}

func (s *Server) resetAPIStats(ctx context.Context, args map[string]any) (any, error) {
	s.upstream.ResetStats()
	return map[string]any{"reset": true}, nil
}
