package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/logging"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/mux"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagMux      string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "tmux-mcp",
	Short: "MCP server and pane monitor for tmux",
	Long: `tmux-mcp exposes tmux as a set of MCP tools: list sessions and panes,
send keys, capture content, manage windows, and monitor interactive panes.

The pane monitor watches a pane running an interactive program (such as an
AI coding assistant), auto-answers permission prompts with the default
choice, and reports back once the output settles.`,
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", envOrDefault("TMUX_MCP_MUX", ""), "terminal multiplexer: tmux (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file path (default: stderr)")
}

// getMultiplexer returns the configured or auto-detected multiplexer.
func getMultiplexer() (mux.Multiplexer, error) {
	if flagMux != "" {
		return mux.FromName(flagMux)
	}
	return mux.Detect()
}

// getLogger builds the zap logger from flags, falling back to the given
// config values where flags are unset.
func getLogger(cfgLevel, cfgFile string) (*zap.Logger, error) {
	level := flagLogLevel
	if level == "" {
		level = cfgLevel
	}
	if level == "" {
		level = "info"
	}
	file := flagLogFile
	if file == "" {
		file = cfgFile
	}
	return logging.New(level, file)
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
