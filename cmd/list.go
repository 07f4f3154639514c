package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagListTarget string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all pane targets",
	Long: `List all tmux panes as targets.

Each line is a pane target that can be passed to other commands
(capture, monitor). Optionally restrict to a session or window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := getMultiplexer()
		if err != nil {
			return err
		}

		panes, err := m.ListPanes(cmd.Context(), flagListTarget)
		if err != nil {
			return fmt.Errorf("failed to list panes: %w", err)
		}

		for _, p := range panes {
			fmt.Println(p.Target)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&flagListTarget, "target", "", "restrict to a session or window (e.g. \"mysession\", \"mysession:0\")")
	rootCmd.AddCommand(listCmd)
}
