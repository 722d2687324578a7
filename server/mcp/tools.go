package mcp

import (
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
)

// Tool-specific error codes
var (
	ErrMissingArgument = errors.MustNewCode("mcp.missing_argument")
	ErrBadArgument     = errors.MustNewCode("mcp.bad_argument")
	ErrUnknownResource = errors.MustNewCode("mcp.unknown_resource")
	ErrNotFound        = errors.MustNewCode("mcp.not_found")
)

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// registerTools declares the tool surface. Read tools go through the
// cache; write tools forward upstream and invalidate the affected scope.
func (s *Server) registerTools() {
	s.register(Tool{
		Name:        "list_solutions",
		Description: "List all solutions in the workspace",
		InputSchema: objectSchema(map[string]any{}),
		Handler:     s.listSolutions,
	})
	s.register(Tool{
		Name:        "list_tables",
		Description: "List tables, optionally restricted to one solution",
		InputSchema: objectSchema(map[string]any{
			"solution_id": map[string]any{"type": "string"},
		}),
		Handler: s.listTables,
	})
	s.register(Tool{
		Name:        "get_table",
		Description: "Describe one table's field structure",
		InputSchema: objectSchema(map[string]any{
			"table_id": map[string]any{"type": "string"},
		}, "table_id"),
		Handler: s.getTable,
	})
	s.register(Tool{
		Name:        "list_records",
		Description: "List records of a table with optional filter, ordering and pagination",
		InputSchema: objectSchema(map[string]any{
			"table_id":  map[string]any{"type": "string"},
			"filter":    map[string]any{"type": "object"},
			"order_by":  map[string]any{"type": "string"},
			"direction": map[string]any{"type": "string", "enum": []string{"ASC", "DESC"}},
			"limit":     map[string]any{"type": "integer"},
			"offset":    map[string]any{"type": "integer"},
			"fields":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"format":    map[string]any{"type": "string", "enum": []string{"toon", "json"}},
		}, "table_id"),
		Handler: s.listRecords,
	})
	s.register(Tool{
		Name:        "get_record",
		Description: "Fetch one record by id",
		InputSchema: objectSchema(map[string]any{
			"table_id":  map[string]any{"type": "string"},
			"record_id": map[string]any{"type": "string"},
		}, "table_id", "record_id"),
		Handler: s.getRecord,
	})
	s.register(Tool{
		Name:        "list_members",
		Description: "List workspace members",
		InputSchema: objectSchema(map[string]any{}),
		Handler:     s.listMembers,
	})
	s.register(Tool{
		Name:        "search_member",
		Description: "Search members by name or email",
		InputSchema: objectSchema(map[string]any{
			"query": map[string]any{"type": "string"},
		}, "query"),
		Handler: s.searchMember,
	})
	s.register(Tool{
		Name:        "list_teams",
		Description: "List teams",
		InputSchema: objectSchema(map[string]any{}),
		Handler:     s.listTeams,
	})
	s.register(Tool{
		Name:        "get_team",
		Description: "Fetch one team by id",
		InputSchema: objectSchema(map[string]any{
			"team_id": map[string]any{"type": "string"},
		}, "team_id"),
		Handler: s.getTeam,
	})
	s.register(Tool{
		Name:        "get_cache_status",
		Description: "Report cache freshness per scope",
		InputSchema: objectSchema(map[string]any{}),
		Handler:     s.getCacheStatus,
	})
	s.register(Tool{
		Name:        "get_api_stats",
		Description: "Report upstream API request counters",
		InputSchema: objectSchema(map[string]any{}),
		Handler:     s.getAPIStats,
	})
	s.register(Tool{
		Name:        "reset_api_stats",
		Description: "Reset upstream API request counters",
		InputSchema: objectSchema(map[string]any{}),
		Handler:     s.resetAPIStats,
	})

	s.register(Tool{
		Name:        "create_record",
		Description: "Create a record in a table",
		InputSchema: objectSchema(map[string]any{
			"table_id": map[string]any{"type": "string"},
			"fields":   map[string]any{"type": "object"},
		}, "table_id", "fields"),
		Handler: s.createRecord,
	})
	s.register(Tool{
		Name:        "update_record",
		Description: "Update a record",
		InputSchema: objectSchema(map[string]any{
			"table_id":  map[string]any{"type": "string"},
			"record_id": map[string]any{"type": "string"},
			"fields":    map[string]any{"type": "object"},
		}, "table_id", "record_id", "fields"),
		Handler: s.updateRecord,
	})
	s.register(Tool{
		Name:        "delete_record",
		Description: "Delete a record",
		InputSchema: objectSchema(map[string]any{
			"table_id":  map[string]any{"type": "string"},
			"record_id": map[string]any{"type": "string"},
		}, "table_id", "record_id"),
		Handler: s.deleteRecord,
	})
	s.register(Tool{
		Name:        "refresh_cache",
		Description: "Invalidate a cache scope and report status",
		InputSchema: objectSchema(map[string]any{
			"resource":    map[string]any{"type": "string", "enum": []string{"solutions", "tables", "records", "members", "teams"}},
			"table_id":    map[string]any{"type": "string"},
			"solution_id": map[string]any{"type": "string"},
		}, "resource"),
		Handler: s.refreshCache,
	})
	s.register(Tool{
		Name:        "warm_cache",
		Description: "Pre-fetch records for selected tables (or the most active ones)",
		InputSchema: objectSchema(map[string]any{
			"tables": map[string]any{"description": "table id, list of ids, or \"auto\""},
			"count":  map[string]any{"type": "integer"},
		}),
		Handler: s.warmCache,
	})
	s.register(Tool{
		Name:        "set_cache_ttl",
		Description: "Configure the record TTL for a table",
		InputSchema: objectSchema(map[string]any{
			"table_id":       map[string]any{"type": "string"},
			"ttl_seconds":    map[string]any{"type": "integer"},
			"mutation_level": map[string]any{"type": "string"},
			"notes":          map[string]any{"type": "string"},
		}, "table_id", "ttl_seconds"),
		Handler: s.setCacheTTL,
	})
}

// Argument helpers. Tool arguments arrive as generic JSON values.

func argString(args map[string]any, key string, required bool) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		if required {
			return "", errors.Newf(ErrMissingArgument, "missing required argument %q", key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.Newf(ErrBadArgument, "argument %q must be a string", key)
	}
	if required && s == "" {
		return "", errors.Newf(ErrMissingArgument, "missing required argument %q", key)
	}
	return s, nil
}

func argInt(args map[string]any, key string, fallback int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, errors.Newf(ErrBadArgument, "argument %q must be an integer", key)
	}
}

func argMap(args map[string]any, key string) (map[string]any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Newf(ErrBadArgument, "argument %q must be an object", key)
	}
	return m, nil
}

func argStringList(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.Newf(ErrBadArgument, "argument %q must be a list of strings", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Newf(ErrBadArgument, "argument %q must be a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
