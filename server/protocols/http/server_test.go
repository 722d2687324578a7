package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()

	cacheManager, err := cache.NewManager(&config.CacheConfig{
		Path:              filepath.Join(t.TempDir(), "cache.db"),
		DefaultTTL:        config.Duration(12 * time.Hour),
		PerfFlushOps:      100,
		PerfFlushInterval: config.Duration(5 * time.Minute),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { cacheManager.Shutdown(context.Background()) })

	return NewServer(&config.HTTPConfig{Enabled: true, Address: "127.0.0.1", Port: 0}, cacheManager, zerolog.Nop())
}

func TestHealthEndpoint(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status": "ok"}`, string(body))
}

func TestCacheStatusEndpoint(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/cache/status", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Contains(t, report, "timestamp")
	assert.Contains(t, report, "solutions")
	assert.Contains(t, report, "records")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDisabledServerIsNoop(t *testing.T) {
	cacheManager, err := cache.NewManager(&config.CacheConfig{
		Path:              filepath.Join(t.TempDir(), "cache.db"),
		DefaultTTL:        config.Duration(12 * time.Hour),
		PerfFlushOps:      100,
		PerfFlushInterval: config.Duration(5 * time.Minute),
	}, zerolog.Nop())
	require.NoError(t, err)
	defer cacheManager.Shutdown(context.Background())

	s := NewServer(&config.HTTPConfig{Enabled: false}, cacheManager, zerolog.Nop())
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Shutdown(context.Background()))
}
