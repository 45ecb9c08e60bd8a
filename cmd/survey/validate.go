package main

import (
	"fmt"

	"github.com/aretw0/survey/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [graph]",
	Short: "Check the graph for consistency",
	Long:  `Walks the graph from its start node and reports dead links or unreachable nodes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("graph") {
			cfg.GraphPath = args[0]
		}
		if err := cli.Validate(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
