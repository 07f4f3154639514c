package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/config"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/watch"
)

var flagWatchRefresh time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive dashboard of pane activity",
	Long: `Show a live dashboard of all tmux panes with their classified activity
state (processing, permission, idle).

Keys: j/k move, enter selects the pane in tmux, r refreshes, q quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		m, err := getMultiplexer()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		t := &watch.TUI{
			Mux:             m,
			RefreshInterval: flagWatchRefresh,
			ScanWindow:      cfg.ScanWindow,
		}
		return t.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchRefresh, "refresh", 2*time.Second, "auto-refresh interval (0 disables)")
	rootCmd.AddCommand(watchCmd)
}
