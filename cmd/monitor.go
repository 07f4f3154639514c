package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/config"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/monitor"
)

var flagMonitorTimeout time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor <target>",
	Short: "Watch an interactive pane until it finishes",
	Long: `Watch a tmux pane running an interactive program until its output
settles, the timeout passes, or capture keeps failing.

Permission prompts appearing in the pane are auto-answered with the default
choice. Prints an event log and the final pane content when done.

Exit status is 0 when the pane settled, 1 otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]

		cfg, err := config.Load()
		if err != nil {
			return err
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

		opts := monitor.Options{
			Interval:           cfg.PollIntervalDuration,
			ProcessingInterval: cfg.ProcessingIntervalDuration,
			Deadline:           cfg.DeadlineDuration,
			StabilityThreshold: cfg.StabilityThreshold,
			ScanWindow:         cfg.ScanWindow,
			MaxCaptureFailures: cfg.MaxCaptureFailures,
		}
		if flagMonitorTimeout > 0 {
			opts.Deadline = flagMonitorTimeout
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		report := monitor.New(m, opts, logger, nil).Run(ctx, target)
		fmt.Fprintln(os.Stdout, report.Render())

		if report.Status != monitor.StatusSucceeded {
			// Report already printed; signal the outcome via exit status.
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return fmt.Errorf("monitor finished with status %s", report.Status)
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&flagMonitorTimeout, "timeout", 0, "maximum time to watch the pane (default: from config)")
	rootCmd.AddCommand(monitorCmd)
}
