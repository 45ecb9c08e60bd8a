package main

import (
	"context"

	"github.com/aretw0/survey/internal/cli"
	"github.com/spf13/cobra"
)

var runOpts cli.RunOptions

var runCmd = &cobra.Command{
	Use:   "run [graph]",
	Short: "Run the survey in the terminal",
	Long: `Runs the survey interactively. Answer with option keys or their numbers
(comma separated on multi-select questions), press Enter to continue, type
'back' to undo and 'exit' to leave. With --session the progress is stored and
resumed on the next run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("graph") {
			cfg.GraphPath = args[0]
		}
		watch, _ := cmd.Flags().GetBool("watch")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if watch {
			return cli.RunWatch(ctx, cfg, runOpts)
		}
		return cli.RunSession(ctx, cfg, runOpts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOpts.Headless, "headless", false, "Plain IO without banner or prompts")
	runCmd.Flags().StringVarP(&runOpts.SessionID, "session", "s", "", "Store and resume progress under this session ID")
	runCmd.Flags().BoolVar(&runOpts.Fresh, "fresh", false, "Discard the stored session before starting")
	runCmd.Flags().BoolP("watch", "w", false, "Reload the graph on every save")
}
