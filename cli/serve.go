package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		logger, err := config.SetupLogger(cfg)
		if err != nil {
			return err
		}

		srv, err := server.New(cfg, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		go func() {
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan
			cancel()
		}()

		if err := srv.Start(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
		case <-srv.Done():
		}
		return srv.Shutdown(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
