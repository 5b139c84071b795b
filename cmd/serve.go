package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/sporefield/mycelium/internal/mcp"
	"github.com/sporefield/mycelium/internal/server"
)

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server, or an MCP stdio server with --mcp",
	Long: `Starts the mycelium HTTP API and WebSocket server for UI clients.
With --mcp it instead speaks the Model Context Protocol on stdio, exposing
the growth engine as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer logger.Sync()

		if serveMCP {
			eng, err := buildEngine(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}

			mcpserver.Version = Version
			fmt.Fprintln(os.Stderr, "mycelium MCP server started on stdio")
			return mcpserver.NewServer(eng).Serve()
		}

		hub := server.NewHub()
		eng, err := buildEngine(cmd.Context(), cfg, logger, hub.Broadcast)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		}, eng, hub, logger)

		// Shut down cleanly on SIGINT/SIGTERM.
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "serve the Model Context Protocol on stdio instead of HTTP")
	rootCmd.AddCommand(serveCmd)
}
