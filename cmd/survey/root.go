package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/survey/internal/cli"
	"github.com/spf13/cobra"
)

// cfg is bound to the persistent flags and read by every subcommand.
var cfg cli.Config

var rootCmd = &cobra.Command{
	Use:   "survey",
	Short: "Survey runs branching questionnaires",
	Long: `Survey walks a graph of questions where each answer schedules the follow-up
questions it branches to. Graphs are YAML or JSON files; sessions can be stored
on disk, in Redis or in SQLite and served over HTTP or MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.GraphPath, "graph", ".", "Graph file, or a directory containing survey.yaml")
	flags.StringVar(&cfg.Store, "store", cli.StoreFile, "Session store: file, memory, redis or sqlite")
	flags.StringVar(&cfg.StoreDir, "store-dir", "", "Directory for the file store (default .survey/sessions)")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "Redis address for --store redis")
	flags.StringVar(&cfg.RedisPassword, "redis-password", "", "Redis password")
	flags.IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	flags.DurationVar(&cfg.SessionTTL, "session-ttl", 24*time.Hour, "Expiry for Redis sessions (0 keeps them forever)")
	flags.StringVar(&cfg.SQLitePath, "sqlite", "survey.db", "Database file for --store sqlite")
	flags.StringVar(&cfg.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringSliceVar(&cfg.MaskNodes, "mask", nil, "Node ID patterns whose text answers are masked in the store")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg.EncryptionKey = os.Getenv(encryptionKeyEnv)
	}
}

// encryptionKeyEnv holds a base64 AES-256 key that seals stored sessions.
const encryptionKeyEnv = "SURVEY_ENCRYPTION_KEY"
