// Package http exposes the health, cache-status and metrics endpoints.
package http

import (
	"context"
	"fmt"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"
)

// ComponentType defines the HTTP server component type identifier
const ComponentType = "http-server"

// Server serves the operational HTTP surface next to the stdio protocol.
type Server struct {
	app    *fiber.App
	cfg    *config.HTTPConfig
	cache  *cache.Manager
	logger zerolog.Logger
}

// NewServer creates the HTTP server.
func NewServer(cfg *config.HTTPConfig, cacheManager *cache.Manager, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "smartsuite-mcp-server",
	})

	s := &Server{
		app:    app,
		cfg:    cfg,
		cache:  cacheManager,
		logger: logger.With().Str("component", "http-server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Get("/cache/status", func(c *fiber.Ctx) error {
		report, err := s.cache.Status(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(report)
	})

	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}

// GetType returns the component type identifier
func (s *Server) GetType() string {
	return ComponentType
}

// Start begins listening. Disabled servers are a no-op.
func (s *Server) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("HTTP server is disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)
	s.logger.Info().Str("address", addr).Msg("Starting HTTP server")

	go func() {
		if err := s.app.Listen(addr); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()
	return nil
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
