package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/survey/internal/logging"
	"github.com/aretw0/survey/pkg/adapters/file"
	"github.com/aretw0/survey/pkg/domain"
)

// Store backends accepted by --store.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// graphCandidates are tried in order when --graph names a directory.
var graphCandidates = []string{"survey.yaml", "survey.yml", "survey.json", "graph.yaml", "graph.json"}

// Config carries the persistent flags shared by every command.
type Config struct {
	GraphPath     string
	Store         string
	StoreDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	SessionTTL    time.Duration
	LogLevel      string

	// EncryptionKey is a base64 AES-256 key; when set snapshots are sealed at rest.
	EncryptionKey string
	// MaskNodes are node ID patterns whose text answers are masked when stored.
	MaskNodes []string
}

// Logger builds the process logger from LogLevel.
func (c Config) Logger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// ResolveGraphPath returns the graph file to load.
// A directory is searched for the conventional file names.
func (c Config) ResolveGraphPath() (string, error) {
	path := c.GraphPath
	if path == "" {
		path = "."
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("graph not found: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}

	for _, name := range graphCandidates {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no graph file in %s (looked for %v)", path, graphCandidates)
}

// Loader resolves the graph path and returns a file loader for it.
func (c Config) Loader(logger *slog.Logger) (*file.Loader, error) {
	path, err := c.ResolveGraphPath()
	if err != nil {
		return nil, err
	}
	return file.NewLoader(path, file.WithLogger(logger)), nil
}

// LoadGraph resolves, reads and validates the graph.
func (c Config) LoadGraph(ctx context.Context, logger *slog.Logger) (*domain.Graph, error) {
	loader, err := c.Loader(logger)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx)
}

func (c Config) storeDir() string {
	if c.StoreDir != "" {
		return c.StoreDir
	}
	return filepath.Join(".survey", "sessions")
}
