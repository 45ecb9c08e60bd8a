package main

import (
	"fmt"

	"github.com/aretw0/survey/internal/cli"
	"github.com/aretw0/survey/internal/presentation/graph"
	"github.com/aretw0/survey/internal/runtime"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [graph]",
	Short: "Export the survey graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the graph. With --session the stored session's
visited, pending and current nodes are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("graph") {
			cfg.GraphPath = args[0]
		}
		sessionID, _ := cmd.Flags().GetString("session")

		ctx := cmd.Context()
		logger, err := cfg.Logger()
		if err != nil {
			return err
		}
		g, err := cfg.LoadGraph(ctx, logger)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if sessionID != "" {
			backend, err := cli.OpenBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			snap, err := backend.Store.Load(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("load session %s: %w", sessionID, err)
			}
			state, err := runtime.NewEngine(g, runtime.WithLogger(logger)).Restore(snap)
			if err != nil {
				return fmt.Errorf("session %s: %w", sessionID, err)
			}
			overlay = graph.OverlayFrom(state)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the progress of this stored session")
}
