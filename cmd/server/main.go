package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
)

func main() {
	// Load server configuration first
	cfg, err := config.LoadConfig(config.DefaultConfigFileName)
	if err != nil {
		// Fall back to defaults when no config file is present
		cfg = config.LoadDefaultConfig()
	}

	// Initialize logger with configuration
	logger, err := config.SetupLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to setup logger: %v", err))
	}

	// Create server instance
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create server")
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("Shutting down SmartSuite MCP server...")
		cancel()
	}()

	// Start server
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
		os.Exit(1)
	}

	// Run until the assistant closes stdin or a signal arrives
	select {
	case <-ctx.Done():
	case <-srv.Done():
	}

	// Graceful shutdown
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}

	logger.Info().Msg("Server stopped gracefully")
}
