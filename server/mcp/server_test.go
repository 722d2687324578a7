package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves a minimal SmartSuite API for dispatcher tests.
type fakeUpstream struct {
	mu           sync.Mutex
	recordCalls  int
	solutionHits int
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/solutions/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.solutionHits++
		f.mu.Unlock()
		w.Write([]byte(`{"items": [{"id": "sol_X", "name": "CRM", "logo_icon": "briefcase", "logo_color": "#fff"}]}`))
	})
	mux.HandleFunc("/applications/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/records/list/") {
			f.mu.Lock()
			f.recordCalls++
			f.mu.Unlock()
			w.Write([]byte(`{"items": [
				{"id": "rec_1", "title": "Task 1", "status": {"value": "active"}, "priority": 1},
				{"id": "rec_2", "title": "Task 2", "status": {"value": "pending"}, "priority": 3,
					"description": {"data": {"type": "doc"}, "html": "<p>Hi</p>", "preview": "Hi", "yjsData": "AAE="}},
				{"id": "rec_3", "title": "Task 3", "status": {"value": "active"}, "priority": 2}
			]}`))
			return
		}
		if strings.Contains(r.URL.Path, "/records/") {
			w.Write([]byte(`{"id": "rec_new", "title": "Created"}`))
			return
		}
		w.Write([]byte(`{"items": [{
			"id": "tbl_A", "name": "Tasks", "solution": "sol_X",
			"structure": [
				{"slug": "title", "label": "Title", "field_type": "textfield", "params": {"primary": true}},
				{"slug": "status", "label": "Status", "field_type": "statusfield"},
				{"slug": "priority", "label": "Priority", "field_type": "numberfield"},
				{"slug": "description", "label": "Description", "field_type": "richtextarea"}
			]
		}]}`))
	})
	mux.HandleFunc("/members/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [
			{"id": "mem_1", "email": "ada@example.com", "first_name": "Ada", "last_name": "Lovelace", "full_name": "Ada Lovelace", "status": "active"},
			{"id": "mem_2", "email": "gone@example.com", "full_name": "Gone Person", "deleted_date": "2024-01-01"}
		]}`))
	})
	mux.HandleFunc("/teams/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"id": "team_1", "name": "Platform", "description": "Core", "members": ["mem_1"]}]}`))
	})
	return mux
}

func newTestServer(t *testing.T) (*Server, *fakeUpstream) {
	t.Helper()

	fake := &fakeUpstream{}
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	cacheManager, err := cache.NewManager(&config.CacheConfig{
		Path:              filepath.Join(t.TempDir(), "cache.db"),
		DefaultTTL:        config.Duration(12 * time.Hour),
		PerfFlushOps:      100,
		PerfFlushInterval: config.Duration(5 * time.Minute),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { cacheManager.Shutdown(context.Background()) })

	client, err := smartsuite.NewClient(&config.UpstreamConfig{
		BaseURL:        ts.URL,
		RequestTimeout: config.Duration(5 * time.Second),
		MaxRetries:     1,
		APIKey:         "k",
		AccountID:      "a",
	}, zerolog.Nop())
	require.NoError(t, err)

	return NewServer(cacheManager, client, bytes.NewReader(nil), &bytes.Buffer{}, zerolog.Nop()), fake
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) (any, error) {
	t.Helper()
	tool, ok := s.tools[name]
	require.True(t, ok, "tool %s not registered", name)
	return tool.Handler(context.Background(), args)
}

func TestToolRegistry(t *testing.T) {
	s, _ := newTestServer(t)

	for _, name := range []string{
		"list_solutions", "list_tables", "get_table", "list_records", "get_record",
		"list_members", "search_member", "list_teams", "get_team",
		"get_cache_status", "get_api_stats", "reset_api_stats",
		"create_record", "update_record", "delete_record",
		"refresh_cache", "warm_cache", "set_cache_ttl",
	} {
		_, ok := s.tools[name]
		assert.True(t, ok, "missing tool %s", name)
	}
	assert.Len(t, s.listTools(), len(s.toolOrder))
}

func TestListSolutionsCachesUpstream(t *testing.T) {
	s, fake := newTestServer(t)

	result, err := callTool(t, s, "list_solutions", map[string]any{})
	require.NoError(t, err)
	payload := result.(map[string]any)
	assert.Equal(t, 1, payload["count"])

	// Second call is served from the cache.
	_, err = callTool(t, s, "list_solutions", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.solutionHits)
}

func TestListRecordsMissThenHit(t *testing.T) {
	s, fake := newTestServer(t)

	result, err := callTool(t, s, "list_records", map[string]any{
		"table_id": "tbl_A",
		"filter":   map[string]any{"status": "active"},
		"order_by": "priority",
	})
	require.NoError(t, err)

	text := result.(string)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	assert.Equal(t, "2 of 2 filtered (3 total)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "records[2]{id|title|"), "got %q", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "rec_1|Task 1|"))
	assert.True(t, strings.HasPrefix(lines[3], "rec_3|Task 3|"))

	// A second call hits the cache: no further upstream record fetches.
	_, err = callTool(t, s, "list_records", map[string]any{"table_id": "tbl_A"})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.recordCalls)
}

func TestListRecordsJSONFormat(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := callTool(t, s, "list_records", map[string]any{
		"table_id": "tbl_A",
		"format":   "json",
		"fields":   []any{"status"},
	})
	require.NoError(t, err)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, float64(3), decoded["count"])
	assert.Equal(t, float64(3), decoded["total_count"])
	items := decoded["items"].([]any)
	require.Len(t, items, 3)
	first := items[0].(map[string]any)
	assert.Contains(t, first, "status")
	assert.NotContains(t, first, "priority")
}

func TestGetRecord(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := callTool(t, s, "get_record", map[string]any{
		"table_id":  "tbl_A",
		"record_id": "rec_2",
	})
	require.NoError(t, err)
	record := result.(map[string]any)
	assert.Equal(t, "rec_2", record["id"])
	assert.Equal(t, "pending", record["status"])
	assert.Equal(t, "<p>Hi</p>", record["description"], "composite unwraps to bare html")

	_, err = callTool(t, s, "get_record", map[string]any{
		"table_id":  "tbl_A",
		"record_id": "rec_missing",
	})
	assert.Error(t, err)
}

func TestMembersToolsFilterDeleted(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := callTool(t, s, "list_members", map[string]any{})
	require.NoError(t, err)
	payload := result.(map[string]any)
	assert.Equal(t, 1, payload["count"], "deleted members stay hidden")

	result, err = callTool(t, s, "search_member", map[string]any{"query": "ada"})
	require.NoError(t, err)
	payload = result.(map[string]any)
	assert.Equal(t, 1, payload["count"])
}

func TestTeamsTools(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := callTool(t, s, "get_team", map[string]any{"team_id": "team_1"})
	require.NoError(t, err)
	team := result.(map[string]any)
	assert.Equal(t, "Platform", team["name"])

	_, err = callTool(t, s, "get_team", map[string]any{"team_id": "team_nope"})
	assert.Error(t, err)
}

func TestWriteToolInvalidatesRecords(t *testing.T) {
	s, fake := newTestServer(t)
	ctx := context.Background()

	_, err := callTool(t, s, "list_records", map[string]any{"table_id": "tbl_A"})
	require.NoError(t, err)
	require.Equal(t, 1, fake.recordCalls)

	_, err = callTool(t, s, "create_record", map[string]any{
		"table_id": "tbl_A",
		"fields":   map[string]any{"title": "New"},
	})
	require.NoError(t, err)

	valid, err := s.cache.Valid(ctx, "records", "tbl_A")
	require.NoError(t, err)
	assert.False(t, valid, "create must invalidate the record cache")

	// Next read repopulates.
	_, err = callTool(t, s, "list_records", map[string]any{"table_id": "tbl_A"})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.recordCalls)
}

func TestRefreshCacheTool(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := callTool(t, s, "list_records", map[string]any{"table_id": "tbl_A"})
	require.NoError(t, err)

	result, err := callTool(t, s, "refresh_cache", map[string]any{
		"resource": "records",
		"table_id": "tbl_A",
	})
	require.NoError(t, err)
	report := result.(*cache.StatusReport)
	require.Len(t, report.Records, 1)
	assert.False(t, report.Records[0].IsValid)

	_, err = callTool(t, s, "refresh_cache", map[string]any{"resource": "records"})
	assert.Error(t, err, "records refresh requires table_id")

	_, err = callTool(t, s, "refresh_cache", map[string]any{"resource": "bogus"})
	assert.Error(t, err)
}

func TestWarmCacheTool(t *testing.T) {
	s, fake := newTestServer(t)

	result, err := callTool(t, s, "warm_cache", map[string]any{"tables": "tbl_A"})
	require.NoError(t, err)
	payload := result.(map[string]any)
	assert.Equal(t, []string{"tbl_A"}, payload["warmed"])
	assert.Equal(t, 1, fake.recordCalls)
}

func TestSetCacheTTLTool(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := callTool(t, s, "set_cache_ttl", map[string]any{
		"table_id":    "tbl_A",
		"ttl_seconds": float64(7200),
	})
	require.NoError(t, err)

	d, err := s.cache.GetTTL(context.Background(), "tbl_A")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, d)

	_, err = callTool(t, s, "set_cache_ttl", map[string]any{
		"table_id":    "tbl_A",
		"ttl_seconds": float64(0),
	})
	assert.Error(t, err)
}

func TestServeJSONRPCFraming(t *testing.T) {
	fake := &fakeUpstream{}
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	cacheManager, err := cache.NewManager(&config.CacheConfig{
		Path:              filepath.Join(t.TempDir(), "cache.db"),
		DefaultTTL:        config.Duration(12 * time.Hour),
		PerfFlushOps:      100,
		PerfFlushInterval: config.Duration(5 * time.Minute),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { cacheManager.Shutdown(context.Background()) })

	client, err := smartsuite.NewClient(&config.UpstreamConfig{
		BaseURL: ts.URL, RequestTimeout: config.Duration(5 * time.Second), MaxRetries: 1, APIKey: "k", AccountID: "a",
	}, zerolog.Nop())
	require.NoError(t, err)

	input := strings.Join([]string{
		`{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": {}}`,
		`{"jsonrpc": "2.0", "method": "notifications/initialized"}`,
		`{"jsonrpc": "2.0", "id": 2, "method": "tools/list"}`,
		`{"jsonrpc": "2.0", "id": 3, "method": "no/such/method"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	server := NewServer(cacheManager, client, strings.NewReader(input), &out, zerolog.Nop())
	require.NoError(t, server.Serve(context.Background()))

	responses := map[string]map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		id, _ := json.Marshal(resp["id"])
		responses[string(id)] = resp
	}

	// The notification got no response.
	require.Len(t, responses, 3)

	initResult := responses["1"]["result"].(map[string]any)
	assert.Equal(t, protocolVersion, initResult["protocolVersion"])

	toolsResult := responses["2"]["result"].(map[string]any)
	assert.NotEmpty(t, toolsResult["tools"])

	assert.NotNil(t, responses["3"]["error"])
}
