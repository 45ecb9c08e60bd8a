package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/survey/internal/logging"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.GraphLoader and ports.Watchable for a YAML or JSON graph file.
// The format is chosen by extension: .yaml/.yml or .json.
//
//	start_id: Start
//	max_history: 20
//	nodes:
//	  - id: Start
//	    text: Welcome
//	    default_next: Q1
//	  - id: Q1
//	    text: Continue?
//	    options:
//	      "Yes": [Q2]
//	      "No": [End]
type Loader struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
}

// DefaultDebounce is how long Watch waits for writes to settle before signalling.
const DefaultDebounce = 100 * time.Millisecond

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used by Watch.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDebounce sets the quiet period Watch waits after the last write.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// NewLoader creates a Loader for the graph file at path.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{path: path, logger: logging.NewNop(), debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the graph file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads, decodes and validates the graph file.
func (l *Loader) Load(ctx context.Context) (*domain.Graph, error) {
	def, err := l.Definition()
	if err != nil {
		return nil, err
	}
	g, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid graph %s: %w", l.path, err)
	}
	return g, nil
}

// Definition reads and decodes the graph file without validating it.
func (l *Loader) Definition() (domain.Definition, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("read graph %s: %w", l.path, err)
	}
	return DecodeDefinition(data, filepath.Ext(l.path))
}

// DecodeDefinition parses a graph document. ext selects the format (".json", ".yaml", ".yml").
// Unknown fields are rejected so typos in option or node keys surface early.
func DecodeDefinition(data []byte, ext string) (domain.Definition, error) {
	var raw map[string]any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return domain.Definition{}, fmt.Errorf("parse json graph: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return domain.Definition{}, fmt.Errorf("parse yaml graph: %w", err)
		}
	default:
		return domain.Definition{}, fmt.Errorf("unsupported graph format %q", ext)
	}

	var def domain.Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &def,
		TagName:     "mapstructure",
	})
	if err != nil {
		return domain.Definition{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.Definition{}, fmt.Errorf("decode graph: %w", err)
	}
	return def, nil
}

// Watch signals on the returned channel whenever the graph file is written or replaced.
// A burst of events (truncate then write, temp file then rename) yields one signal
// once the file has been quiet for the debounce period.
// The directory is watched rather than the file so editors that save via rename are seen.
// The channel is closed when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("graph watcher: %w", err)
	}

	abs, err := filepath.Abs(l.path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("graph watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("graph watcher add %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer w.Close()

		timer := time.NewTimer(l.debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					l.logger.Debug("graph changed", "path", l.path, "op", ev.Op.String())
					timer.Reset(l.debounce)
				}
			case <-timer.C:
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("graph watcher error", "path", l.path, "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
