package mcp

import (
	"context"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/ttl"
)

// Write tools forward to the upstream and, on success, invalidate the
// affected cache scope so the next read repopulates.

func (s *Server) createRecord(ctx context.Context, args map[string]any) (any, error) {
	tableID, err := argString(args, "table_id", true)
	if err != nil {
		return nil, err
	}
	fields, err := argMap(args, "fields")
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.Newf(ErrMissingArgument, "missing required argument %q", "fields")
	}

	record, err := s.upstream.CreateRecord(ctx, tableID, fields)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, ttl.ScopeRecords, tableID); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Server) updateRecord(ctx context.Context, args map[string]any) (any, error) {
	tableID, err := argString(args, "table_id", true)
	if err != nil {
		return nil, err
	}
	recordID, err := argString(args, "record_id", true)
	if err != nil {
		return nil, err
	}
	fields, err := argMap(args, "fields")
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.Newf(ErrMissingArgument, "missing required argument %q", "fields")
	}

	record, err := s.upstream.UpdateRecord(ctx, tableID, recordID, fields)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, ttl.ScopeRecords, tableID); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Server) deleteRecord(ctx context.Context, args map[string]any) (any, error) {
	tableID, err := argString(args, "table_id", true)
	if err != nil {
		return nil, err
	}
	recordID, err := argString(args, "record_id", true)
	if err != nil {
		return nil, err
	}

	if err := s.upstream.DeleteRecord(ctx, tableID, recordID); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, ttl.ScopeRecords, tableID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": recordID}, nil
}

// scopeForResource maps the refresh-cache resource names onto cache
// scopes.
func scopeForResource(resource string) (ttl.Scope, bool) {
	switch resource {
	case "solutions":
		return ttl.ScopeSolutions, true
	case "tables", "table_list":
		return ttl.ScopeTableList, true
	case "records":
		return ttl.ScopeRecords, true
	case "members":
		return ttl.ScopeMembers, true
	case "teams":
		return ttl.ScopeTeams, true
	default:
		return "", false
	}
}

func (s *Server) refreshCache(ctx context.Context, args map[string]any) (any, error) {
	resource, err := argString(args, "resource", true)
	if err != nil {
		return nil, err
	}
	scope, ok := scopeForResource(resource)
	if !ok {
		return nil, errors.Newf(ErrUnknownResource, "unknown resource %q", resource)
	}

	var id string
	switch scope {
	case ttl.ScopeRecords:
		if id, err = argString(args, "table_id", true); err != nil {
			return nil, err
		}
	case ttl.ScopeTableList:
		if id, err = argString(args, "solution_id", false); err != nil {
			return nil, err
		}
	}

	return s.cache.Refresh(ctx, scope, id)
}

func (s *Server) warmCache(ctx context.Context, args map[string]any) (any, error) {
	count, err := argInt(args, "count", 0)
	if err != nil {
		return nil, err
	}

	spec := ttl.ParseWarmSpec(args["tables"])
	tableIDs, err := s.cache.WarmSelection(ctx, spec, count)
	if err != nil {
		return nil, err
	}

	warmed := make([]string, 0, len(tableIDs))
	for _, tableID := range tableIDs {
		if err := s.populateRecords(ctx, tableID); err != nil {
			s.logger.Warn().Err(err).Str("table_id", tableID).Msg("warm-up failed for table")
			continue
		}
		warmed = append(warmed, tableID)
	}
	return map[string]any{"warmed": warmed}, nil
}

func (s *Server) setCacheTTL(ctx context.Context, args map[string]any) (any, error) {
	tableID, err := argString(args, "table_id", true)
	if err != nil {
		return nil, err
	}
	ttlSeconds, err := argInt(args, "ttl_seconds", 0)
	if err != nil {
		return nil, err
	}
	mutationLevel, err := argString(args, "mutation_level", false)
	if err != nil {
		return nil, err
	}
	notes, err := argString(args, "notes", false)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetTTL(ctx, tableID, time.Duration(ttlSeconds)*time.Second, mutationLevel, notes); err != nil {
		return nil, err
	}
	return map[string]any{"table_id": tableID, "ttl_seconds": ttlSeconds}, nil
}
