package main

import (
	"fmt"

	"github.com/aretw0/survey"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of survey",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "survey version %s\n", survey.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
