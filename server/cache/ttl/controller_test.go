package ttl

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/store"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewController(s, 12*time.Hour, zerolog.Nop()), s
}

func TestPresetDurations(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, PresetDuration(PresetStatic))
	assert.Equal(t, 7*24*time.Hour, PresetDuration(PresetLowMutation))
	assert.Equal(t, 12*time.Hour, PresetDuration(PresetDefault))
	assert.Equal(t, 2*time.Hour, PresetDuration(PresetHighMutation))
	assert.Equal(t, 15*time.Minute, PresetDuration(PresetVeryHighMutation))
	assert.Equal(t, 12*time.Hour, PresetDuration("bogus"), "unknown preset falls back to default")
}

func TestGetTTLDefault(t *testing.T) {
	controller, _ := newController(t)

	ttl, err := controller.GetTTL(context.Background(), "tbl_A")
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, ttl)
}

func TestSetAndGetTTL(t *testing.T) {
	controller, _ := newController(t)
	ctx := context.Background()

	require.NoError(t, controller.SetTTL(ctx, "tbl_A", 2*time.Hour, PresetHighMutation, "busy"))

	ttl, err := controller.GetTTL(ctx, "tbl_A")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)
}

func TestSetTTLRejectsNonPositive(t *testing.T) {
	controller, _ := newController(t)
	assert.Error(t, controller.SetTTL(context.Background(), "tbl_A", 0, "", ""))
	assert.Error(t, controller.SetTTL(context.Background(), "tbl_A", -time.Hour, "", ""))
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	structure := smartsuite.Structure{{Slug: "title", FieldType: "textfield"}}
	records := []smartsuite.Record{{"id": "rec_1", "title": "One"}}

	_, err := s.StoreSolutions(ctx, []smartsuite.Solution{{ID: "sol_X", Name: "X"}}, time.Hour)
	require.NoError(t, err)
	_, err = s.StoreTableList(ctx, "", []smartsuite.Table{
		{ID: "tbl_A", SolutionID: "sol_X", Name: "A", Structure: structure},
		{ID: "tbl_B", SolutionID: "sol_X", Name: "B", Structure: structure},
	}, time.Hour)
	require.NoError(t, err)
	for _, id := range []string{"tbl_A", "tbl_B"} {
		_, err = s.StoreRecords(ctx, id, structure, records, time.Hour)
		require.NoError(t, err)
	}
	_, err = s.StoreMembers(ctx, []smartsuite.Member{{ID: "mem_1"}}, time.Hour)
	require.NoError(t, err)
	_, err = s.StoreTeams(ctx, []smartsuite.Team{{ID: "team_1"}}, time.Hour)
	require.NoError(t, err)
}

func TestInvalidateSolutionsCascade(t *testing.T) {
	controller, s := newController(t)
	ctx := context.Background()
	seed(t, s)

	require.NoError(t, controller.Invalidate(ctx, ScopeSolutions, ""))

	for _, check := range []struct {
		scope Scope
		id    string
	}{
		{ScopeSolutions, ""},
		{ScopeTableList, "sol_X"},
		{ScopeTableList, ""},
		{ScopeRecords, "tbl_A"},
		{ScopeRecords, "tbl_B"},
	} {
		valid, err := controller.Valid(ctx, check.scope, check.id)
		require.NoError(t, err)
		assert.False(t, valid, "%s/%s must be invalid", check.scope, check.id)
	}

	// Members and teams are untouched by the solutions cascade.
	valid, err := controller.Valid(ctx, ScopeMembers, "")
	require.NoError(t, err)
	assert.True(t, valid)
	valid, err = controller.Valid(ctx, ScopeTeams, "")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestInvalidateTableListCascade(t *testing.T) {
	controller, s := newController(t)
	ctx := context.Background()
	seed(t, s)

	require.NoError(t, controller.Invalidate(ctx, ScopeTableList, "sol_X"))

	valid, err := controller.Valid(ctx, ScopeRecords, "tbl_A")
	require.NoError(t, err)
	assert.False(t, valid)

	// Solutions stay valid above the invalidated level.
	valid, err = controller.Valid(ctx, ScopeSolutions, "")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestInvalidateRecordsRequiresTableID(t *testing.T) {
	controller, _ := newController(t)
	assert.Error(t, controller.Invalidate(context.Background(), ScopeRecords, ""))
}

func TestInvalidateUnknownScope(t *testing.T) {
	controller, _ := newController(t)
	assert.Error(t, controller.Invalidate(context.Background(), Scope("bogus"), ""))
	_, err := controller.Valid(context.Background(), Scope("bogus"), "")
	assert.Error(t, err)
}

func TestParseWarmSpec(t *testing.T) {
	assert.True(t, ParseWarmSpec(nil).Auto)
	assert.True(t, ParseWarmSpec("").Auto)
	assert.True(t, ParseWarmSpec("auto").Auto)
	assert.Equal(t, []string{"tbl_A"}, ParseWarmSpec("tbl_A").TableIDs)
	assert.Equal(t, []string{"tbl_A", "tbl_B"}, ParseWarmSpec([]any{"tbl_A", "tbl_B"}).TableIDs)
	assert.True(t, ParseWarmSpec([]any{}).Auto)
	assert.True(t, ParseWarmSpec(42).Auto)
}

func TestTablesToWarmExplicit(t *testing.T) {
	controller, _ := newController(t)

	ids, err := controller.TablesToWarm(context.Background(), WarmSpec{TableIDs: []string{"a", "b", "c"}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestTablesToWarmAuto(t *testing.T) {
	controller, s := newController(t)
	ctx := context.Background()

	require.NoError(t, s.FlushPerformance(ctx, map[string]store.HitMiss{
		"tbl_hot":  {Hits: 100},
		"tbl_warm": {Hits: 10},
		"tbl_cold": {Hits: 1},
	}))

	ids, err := controller.TablesToWarm(ctx, WarmSpec{Auto: true}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"tbl_hot", "tbl_warm"}, ids)
}
