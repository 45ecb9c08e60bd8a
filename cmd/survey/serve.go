package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/survey"
	"github.com/aretw0/survey/internal/cli"
	httpadapter "github.com/aretw0/survey/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [graph]",
	Short: "Start the HTTP server",
	Long: `Serves the survey as a JSON API over HTTP. Sessions live in the configured
store, so several replicas can share Redis. Prometheus metrics are exposed on
/metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("graph") {
			cfg.GraphPath = args[0]
		}
		port, _ := cmd.Flags().GetString("port")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		svc, err := cli.NewServices(ctx, cfg, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		defer svc.Close()

		handler := httpadapter.NewHandler(svc.Sessions,
			httpadapter.WithLogger(svc.Logger),
			httpadapter.WithVersion(survey.Version),
			httpadapter.WithMetricsHandler(promhttp.Handler()),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			svc.Logger.Info("starting survey server", "addr", srv.Addr, "store", cfg.Store)
			fmt.Fprintf(cmd.OutOrStdout(), "Starting survey server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			svc.Logger.Info("shutting down", "signal", ctx.Signal())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Survey server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
