// Package server wires the cache, the upstream client and the protocol
// servers into one process.
package server

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/mcp"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/metrics"
	httpserver "github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/protocols/http"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/shared"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
	"github.com/rs/zerolog"
)

// Server is the top-level process: cache manager, upstream client, the
// stdio JSON-RPC dispatcher and the HTTP operational endpoint.
type Server struct {
	config     *config.Config
	logger     zerolog.Logger
	cache      *cache.Manager
	upstream   *smartsuite.Client
	mcpServer  *mcp.Server
	httpServer *httpserver.Server

	components []shared.Component
	startTime  time.Time
	done       chan struct{}
	wg         sync.WaitGroup
}

// New creates a server instance with all components wired.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	metrics.Register()

	cacheManager, err := cache.NewManager(&cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	upstream, err := smartsuite.NewClient(&cfg.Upstream, logger)
	if err != nil {
		cacheManager.Shutdown(context.Background())
		return nil, err
	}

	mcpServer := mcp.NewServer(cacheManager, upstream, os.Stdin, os.Stdout, logger)
	httpServer := httpserver.NewServer(&cfg.HTTP, cacheManager, logger)

	return &Server{
		config:     cfg,
		logger:     logger.With().Str("component", "server").Logger(),
		cache:      cacheManager,
		upstream:   upstream,
		mcpServer:  mcpServer,
		httpServer: httpServer,
		components: []shared.Component{mcpServer, httpServer, upstream, cacheManager},
		startTime:  time.Now(),
		done:       make(chan struct{}),
	}, nil
}

// Start launches the HTTP endpoint and the stdio dispatcher. The stdio
// loop runs until stdin closes; Done() reports that.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting SmartSuite MCP server...")

	if err := s.httpServer.Start(ctx); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)
		if err := s.mcpServer.Serve(ctx); err != nil && err != context.Canceled {
			s.logger.Error().Err(err).Msg("dispatcher stopped with error")
		}
	}()

	s.logger.Info().Msg("SmartSuite MCP server started")
	return nil
}

// Done is closed when the stdio dispatcher finishes (stdin EOF).
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Shutdown stops every component in order: protocol servers first, then
// the upstream client, then the cache (which flushes counters).
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server...")

	for _, component := range s.components {
		if err := component.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Str("component", component.GetType()).Msg("component shutdown failed")
		}
	}

	// The stdio loop blocks on stdin; don't hang shutdown on it.
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout, stdio loop still reading")
	}

	s.logger.Info().Dur("uptime", time.Since(s.startTime)).Msg("Server stopped")
	return nil
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}
