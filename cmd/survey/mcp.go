package main

import (
	"fmt"

	"github.com/aretw0/survey"
	"github.com/aretw0/survey/internal/cli"
	"github.com/aretw0/survey/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [graph]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the survey as MCP tools so an AI agent can fill it in.

Supported transports:
- stdio (default): Standard Input/Output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("graph") {
			cfg.GraphPath = args[0]
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		// Stdout belongs to JSON-RPC on stdio; the logger already writes to stderr.
		svc, err := cli.NewServices(ctx, cfg, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := mcp.NewServer(svc.Sessions, survey.Version, mcp.WithLogger(svc.Logger))

		switch transport {
		case "stdio":
			svc.Logger.Info("starting MCP server", "transport", transport)
			return srv.ServeStdio()
		case "sse":
			svc.Logger.Info("starting MCP server", "transport", transport, "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				return err
			}
			svc.Logger.Info("MCP server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
