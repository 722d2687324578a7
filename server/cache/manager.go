package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/format"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/query"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/store"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/ttl"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/metrics"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
	"github.com/rs/zerolog"
)

// ComponentType defines the cache manager component type identifier
const ComponentType = "cache"

// Manager is the cache facade the dispatcher talks to: populate, query,
// invalidate, status, TTL configuration and hit/miss accounting. Populate
// is the only ingress of fresh data; the cache never calls upstream.
type Manager struct {
	store      *store.Store
	controller *ttl.Controller
	formatter  *format.Formatter
	ledger     *ledger
	logger     zerolog.Logger
}

// NewManager opens the cache store and wires the TTL controller and
// formatter.
func NewManager(cfg *config.CacheConfig, logger zerolog.Logger) (*Manager, error) {
	s, err := store.NewStore(cfg.Path, logger)
	if err != nil {
		return nil, err
	}

	loc, err := format.ParseTimezone(cfg.Timezone)
	if err != nil {
		s.Close()
		return nil, err
	}

	controller := ttl.NewController(s, cfg.DefaultTTL.D(), logger)

	return &Manager{
		store:      s,
		controller: controller,
		formatter:  format.NewFormatter(loc),
		ledger:     newLedger(s, cfg.PerfFlushOps, cfg.PerfFlushInterval.D(), logger.With().Str("component", "cache-ledger").Logger()),
		logger:     logger.With().Str("component", "cache").Logger(),
	}, nil
}

// GetType returns the component type identifier
func (m *Manager) GetType() string {
	return ComponentType
}

// Shutdown flushes pending counters and closes the store.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.ledger.flush(ctx)
	return m.store.Close()
}

// Store exposes the storage engine to in-process collaborators.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Controller exposes the TTL controller.
func (m *Manager) Controller() *ttl.Controller {
	return m.controller
}

// Formatter exposes the response formatter.
func (m *Manager) Formatter() *format.Formatter {
	return m.formatter
}

// resolveTTL picks the explicit override when given (negative overrides
// are honored so callers can write pre-expired rows), otherwise the
// configured TTL for the key.
func (m *Manager) resolveTTL(ctx context.Context, key string, override time.Duration) (time.Duration, error) {
	if override != 0 {
		return override, nil
	}
	return m.controller.GetTTL(ctx, key)
}

// PopulateSolutions replaces the solutions cache. Returns the row count.
func (m *Manager) PopulateSolutions(ctx context.Context, solutions []smartsuite.Solution, ttlOverride time.Duration) (int, error) {
	d, err := m.resolveTTL(ctx, string(ttl.ScopeSolutions), ttlOverride)
	if err != nil {
		return 0, err
	}
	count, err := m.store.StoreSolutions(ctx, solutions, d)
	if err != nil {
		return 0, err
	}
	m.notePopulate(ctx, "solutions", count)
	return count, nil
}

// PopulateTableList replaces the table-list cache, globally or for one
// solution.
func (m *Manager) PopulateTableList(ctx context.Context, solutionID string, tables []smartsuite.Table, ttlOverride time.Duration) (int, error) {
	d, err := m.resolveTTL(ctx, string(ttl.ScopeTableList), ttlOverride)
	if err != nil {
		return 0, err
	}
	count, err := m.store.StoreTableList(ctx, solutionID, tables, d)
	if err != nil {
		return 0, err
	}
	m.notePopulate(ctx, "table_list", count)
	return count, nil
}

// PopulateRecords replaces the record cache of one table. A nil structure
// falls back to the cached table-list entry.
func (m *Manager) PopulateRecords(ctx context.Context, tableID string, structure smartsuite.Structure, records []smartsuite.Record, ttlOverride time.Duration) (int, error) {
	if structure == nil {
		cached, found, err := m.store.GetCachedTable(ctx, tableID)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, errors.New(ErrStructureRequired, "no structure supplied and table is not in the table-list cache", nil).
				AddContext("table_id", tableID)
		}
		structure = cached.Structure
	}

	d, err := m.resolveTTL(ctx, tableID, ttlOverride)
	if err != nil {
		return 0, err
	}
	count, err := m.store.StoreRecords(ctx, tableID, structure, records, d)
	if err != nil {
		return 0, err
	}
	m.notePopulate(ctx, "records", count)
	return count, nil
}

// PopulateMembers replaces the members cache.
func (m *Manager) PopulateMembers(ctx context.Context, members []smartsuite.Member, ttlOverride time.Duration) (int, error) {
	d, err := m.resolveTTL(ctx, string(ttl.ScopeMembers), ttlOverride)
	if err != nil {
		return 0, err
	}
	count, err := m.store.StoreMembers(ctx, members, d)
	if err != nil {
		return 0, err
	}
	m.notePopulate(ctx, "members", count)
	return count, nil
}

// PopulateTeams replaces the teams cache.
func (m *Manager) PopulateTeams(ctx context.Context, teams []smartsuite.Team, ttlOverride time.Duration) (int, error) {
	d, err := m.resolveTTL(ctx, string(ttl.ScopeTeams), ttlOverride)
	if err != nil {
		return 0, err
	}
	count, err := m.store.StoreTeams(ctx, teams, d)
	if err != nil {
		return 0, err
	}
	m.notePopulate(ctx, "teams", count)
	return count, nil
}

func (m *Manager) notePopulate(ctx context.Context, resource string, count int) {
	metrics.PopulatedRows.WithLabelValues(resource).Add(float64(count))
	if err := m.store.SetStat(ctx, resource, "last_populate_count", strconv.Itoa(count)); err != nil {
		m.logger.Warn().Err(err).Str("resource", resource).Msg("failed to record populate stat")
	}
}

// Query returns a builder over one table's record cache. A table never
// populated fails with cache.miss; the caller fetches upstream,
// populates, and retries.
func (m *Manager) Query(ctx context.Context, tableID string) (*query.Builder, error) {
	tableSchema, found, err := m.store.GetRegistryEntry(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(ErrCacheMiss, "table is not cached", nil).AddContext("table_id", tableID)
	}
	return query.New(m.store, tableSchema), nil
}

// Valid reports scope freshness; see ttl.Controller.Valid.
func (m *Manager) Valid(ctx context.Context, scope ttl.Scope, id string) (bool, error) {
	return m.controller.Valid(ctx, scope, id)
}

// CheckFresh distinguishes a never-populated record cache (cache.miss)
// from one whose rows all expired (cache.expired). Both are recovered the
// same way: fetch upstream and repopulate.
func (m *Manager) CheckFresh(ctx context.Context, scope ttl.Scope, id string) error {
	if scope == ttl.ScopeRecords {
		_, found, err := m.store.GetRegistryEntry(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return errors.New(ErrCacheMiss, "table is not cached", nil).AddContext("table_id", id)
		}
	}

	valid, err := m.controller.Valid(ctx, scope, id)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Newf(ErrCacheExpired, "%s cache is stale", scope)
	}
	return nil
}

// Invalidate marks a scope stale with the documented cascade.
func (m *Manager) Invalidate(ctx context.Context, scope ttl.Scope, id string) error {
	if err := m.controller.Invalidate(ctx, scope, id); err != nil {
		return err
	}
	metrics.Invalidations.WithLabelValues(string(scope)).Inc()
	return nil
}

// Refresh invalidates a resource and reports the resulting status. It
// does not re-fetch; the next read misses and repopulates. Refreshing
// records requires a table id.
func (m *Manager) Refresh(ctx context.Context, scope ttl.Scope, id string) (*StatusReport, error) {
	if err := m.Invalidate(ctx, scope, id); err != nil {
		return nil, err
	}
	return m.Status(ctx)
}

// GetTTL returns the effective TTL for a table.
func (m *Manager) GetTTL(ctx context.Context, tableID string) (time.Duration, error) {
	return m.controller.GetTTL(ctx, tableID)
}

// SetTTL persists a TTL for a table without touching row data.
func (m *Manager) SetTTL(ctx context.Context, tableID string, d time.Duration, mutationLevel, notes string) error {
	return m.controller.SetTTL(ctx, tableID, d, mutationLevel, notes)
}

// RecordHit notes a cache hit for a table. Increments batch in memory and
// flush on the documented thresholds.
func (m *Manager) RecordHit(ctx context.Context, tableID string) {
	m.ledger.recordHit(ctx, tableID)
}

// RecordMiss notes a cache miss for a table.
func (m *Manager) RecordMiss(ctx context.Context, tableID string) {
	m.ledger.recordMiss(ctx, tableID)
}

// FlushCounters forces the pending hit/miss deltas into the durable
// counters.
func (m *Manager) FlushCounters(ctx context.Context) {
	m.ledger.flush(ctx)
}

// WarmSelection resolves a warm-cache spec to table ids.
func (m *Manager) WarmSelection(ctx context.Context, spec ttl.WarmSpec, n int) ([]string, error) {
	return m.controller.TablesToWarm(ctx, spec, n)
}
