package ttl

import (
	"context"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/store"
	"github.com/rs/zerolog"
)

// Scope identifies one cache freshness domain.
type Scope string

const (
	ScopeSolutions Scope = "solutions"
	ScopeTableList Scope = "table_list"
	ScopeRecords   Scope = "records"
	ScopeMembers   Scope = "members"
	ScopeTeams     Scope = "teams"
)

// Controller-specific error codes
var (
	ErrUnknownScope    = errors.MustNewCode("ttl.unknown_scope")
	ErrTableIDRequired = errors.MustNewCode("ttl.table_id_required")
)

// Controller owns the freshness policy: per-table TTL configuration,
// validity checks, cascading invalidation and warm-up selection. It never
// touches record row data beyond deleting it.
type Controller struct {
	store      *store.Store
	defaultTTL time.Duration
	logger     zerolog.Logger
}

// NewController creates a TTL controller over the given store.
func NewController(s *store.Store, defaultTTL time.Duration, logger zerolog.Logger) *Controller {
	if defaultTTL <= 0 {
		defaultTTL = PresetDuration(PresetDefault)
	}
	return &Controller{
		store:      s,
		defaultTTL: defaultTTL,
		logger:     logger.With().Str("component", "ttl-controller").Logger(),
	}
}

// GetTTL returns the configured TTL for a table, or the default.
func (c *Controller) GetTTL(ctx context.Context, tableID string) (time.Duration, error) {
	cfg, found, err := c.store.GetTTLConfig(ctx, tableID)
	if err != nil {
		return 0, err
	}
	if !found {
		return c.defaultTTL, nil
	}
	return time.Duration(cfg.TTLSeconds) * time.Second, nil
}

// SetTTL persists a TTL for a table. mutationLevel may name a preset for
// bookkeeping; it does not override the explicit duration.
func (c *Controller) SetTTL(ctx context.Context, tableID string, ttl time.Duration, mutationLevel, notes string) error {
	if ttl <= 0 {
		return errors.New(errors.CommonInvalidInput, "ttl must be positive", nil).AddContext("table_id", tableID)
	}
	return c.store.SetTTLConfig(ctx, tableID, ttl, mutationLevel, notes)
}

// ScopeTTL returns the TTL used for a non-record scope. Solutions,
// table lists, members and teams share the default unless configured under
// their scope name.
func (c *Controller) ScopeTTL(ctx context.Context, scope Scope) (time.Duration, error) {
	return c.GetTTL(ctx, string(scope))
}

// Valid reports whether a scope currently holds at least one non-expired
// row. The id is the table id for ScopeRecords and the solution id
// (optionally empty) for ScopeTableList.
func (c *Controller) Valid(ctx context.Context, scope Scope, id string) (bool, error) {
	switch scope {
	case ScopeSolutions:
		return c.store.ValidSolutions(ctx)
	case ScopeTableList:
		return c.store.ValidTableList(ctx, id)
	case ScopeRecords:
		return c.store.ValidRecords(ctx, id)
	case ScopeMembers:
		return c.store.ValidMembers(ctx)
	case ScopeTeams:
		return c.store.ValidTeams(ctx)
	default:
		return false, errors.Newf(ErrUnknownScope, "unknown cache scope %q", scope)
	}
}

// Invalidate marks a scope stale, cascading per the scope nesting:
// solutions > table lists > records. Members and teams stand alone. The
// call is atomic; once it returns every Valid call observes the new
// state.
func (c *Controller) Invalidate(ctx context.Context, scope Scope, id string) error {
	var err error
	switch scope {
	case ScopeSolutions:
		err = c.store.InvalidateSolutions(ctx)
	case ScopeTableList:
		err = c.store.InvalidateTableList(ctx, id)
	case ScopeRecords:
		if id == "" {
			return errors.New(ErrTableIDRequired, "records invalidation requires a table id", nil)
		}
		err = c.store.InvalidateRecords(ctx, id)
	case ScopeMembers:
		err = c.store.InvalidateMembers(ctx)
	case ScopeTeams:
		err = c.store.InvalidateTeams(ctx)
	default:
		return errors.Newf(ErrUnknownScope, "unknown cache scope %q", scope)
	}
	if err != nil {
		return err
	}

	c.logger.Debug().Str("scope", string(scope)).Str("id", id).Msg("cache invalidated")
	return nil
}

// WarmSpec selects tables to pre-warm: an explicit list, a single id, or
// "auto"/empty for a ranking by historical hits.
type WarmSpec struct {
	TableIDs []string
	Auto     bool
}

// ParseWarmSpec interprets the warm-cache tool input.
func ParseWarmSpec(raw any) WarmSpec {
	switch v := raw.(type) {
	case nil:
		return WarmSpec{Auto: true}
	case string:
		if v == "" || v == "auto" {
			return WarmSpec{Auto: true}
		}
		return WarmSpec{TableIDs: []string{v}}
	case []string:
		return WarmSpec{TableIDs: v}
	case []any:
		spec := WarmSpec{}
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				spec.TableIDs = append(spec.TableIDs, s)
			}
		}
		if len(spec.TableIDs) == 0 {
			spec.Auto = true
		}
		return spec
	default:
		return WarmSpec{Auto: true}
	}
}

// TablesToWarm resolves a warm spec to concrete table ids. Auto selection
// ranks by raw hit count, most-active first; recency deliberately plays no
// part.
func (c *Controller) TablesToWarm(ctx context.Context, spec WarmSpec, n int) ([]string, error) {
	if !spec.Auto {
		if n > 0 && len(spec.TableIDs) > n {
			return spec.TableIDs[:n], nil
		}
		return spec.TableIDs, nil
	}
	if n <= 0 {
		n = 5
	}
	return c.store.TopTablesByHits(ctx, n)
}
