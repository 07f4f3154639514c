package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/config"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/mcpserver"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/monitor"
	tmotel "github.com/WENLIXIAO-CS/tmux-mcp/internal/otel"
)

var (
	flagTransport string
	flagHost      string
	flagPort      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server exposing tmux tools to MCP clients.

Transports:
  stdio            JSON-RPC over stdin/stdout (default; logs go to stderr)
  sse              HTTP with SSE endpoints /sse and /message
  streamable-http  HTTP with a single /mcp endpoint

The sse and streamable-http transports serve both protocols on one port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if flagTransport != "" {
			cfg.Transport = flagTransport
		}
		if flagHost != "" {
			cfg.Host = flagHost
		}
		if flagPort > 0 {
			cfg.Port = flagPort
		}

		logger, err := getLogger(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		m, err := getMultiplexer()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tmotel.Version = Version
		tel, err := tmotel.Init(ctx, tmotel.Config{
			Endpoint: cfg.OTELEndpoint,
			Headers:  cfg.OTELHeaders,
		})
		if err != nil {
			return fmt.Errorf("otel init: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tel.Shutdown(shutdownCtx)
		}()

		if cfg.ConfigFile != "" {
			logger.Info("loaded config", zap.String("file", cfg.ConfigFile))
		}

		mcpserver.Version = Version
		srv := mcpserver.New(mcpserver.Config{
			Transport: cfg.Transport,
			Host:      cfg.Host,
			Port:      cfg.Port,
			Monitor: monitor.Options{
				Interval:           cfg.PollIntervalDuration,
				ProcessingInterval: cfg.ProcessingIntervalDuration,
				Deadline:           cfg.DeadlineDuration,
				StabilityThreshold: cfg.StabilityThreshold,
				ScanWindow:         cfg.ScanWindow,
				MaxCaptureFailures: cfg.MaxCaptureFailures,
			},
		}, m, logger, tel.Metrics)

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagTransport, "transport", "", "transport: stdio, sse, streamable-http (default: from config)")
	serveCmd.Flags().StringVar(&flagHost, "host", "", "host to bind for HTTP transports (default: from config)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "port to bind for HTTP transports (default: from config)")
	rootCmd.AddCommand(serveCmd)
}
