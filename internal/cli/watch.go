package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/survey"
	"github.com/aretw0/survey/internal/presentation/tui"
	"github.com/aretw0/survey/pkg/adapters/file"
	"github.com/aretw0/survey/pkg/domain"
)

// WatchSessionID scopes the default watch session to the graph file so two
// projects never share progress.
func WatchSessionID(graphPath string) string {
	abs, err := filepath.Abs(graphPath)
	if err != nil {
		abs = graphPath
	}
	hash := md5.Sum([]byte(abs))
	return fmt.Sprintf("watch-%x", hash[:4])
}

// RunWatch runs the survey in development mode: every save of the graph file
// reloads it and resumes the session where it was, when it still fits.
func RunWatch(ctx context.Context, cfg Config, opts RunOptions) error {
	if opts.Headless {
		return errors.New("--watch and --headless cannot be used together")
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	loader, err := cfg.Loader(logger)
	if err != nil {
		return err
	}

	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if opts.SessionID == "" {
		opts.SessionID = WatchSessionID(loader.Path())
	}
	if opts.Fresh {
		if err := backend.Store.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("reset session %s: %w", opts.SessionID, err)
		}
	}

	changes, err := loader.Watch(ctx)
	if err != nil {
		return err
	}

	// One runner for every iteration keeps a single reader on stdin.
	r := newRunner(opts)
	defer r.Close()
	tui.PrintBanner(r.Output, survey.Version)
	logger.Info("watching graph", "path", loader.Path(), "session_id", opts.SessionID)
	printSystemMessage(r.Output, "Watching '%s' (session '%s').", loader.Path(), opts.SessionID)

	w := &watcher{loader: loader, backend: backend, runner: r, opts: opts, changes: changes, logger: logger}
	for {
		reload, err := w.iteration(ctx)
		if err != nil {
			return handleRunError(err)
		}
		if !reload {
			return nil
		}
		logger.Info("graph changed, reloading", "path", loader.Path())
		printSystemMessage(r.Output, "Graph changed, reloading...")
	}
}

type watcher struct {
	loader  *file.Loader
	backend *Backend
	runner  *survey.Runner
	opts    RunOptions
	changes <-chan struct{}
	logger  *slog.Logger
}

// iteration loads the graph and runs until the user leaves (false) or the graph
// changes (true).
func (w *watcher) iteration(ctx context.Context) (bool, error) {
	graph, err := w.loader.Load(ctx)
	if err != nil {
		w.logger.Error("graph load failed", "path", w.loader.Path(), "err", err)
		printSystemMessage(w.runner.Output, "Graph invalid: %v", err)
		printSystemMessage(w.runner.Output, "Waiting for changes...")
		return w.waitChange(ctx), nil
	}

	engine, err := survey.New(graph, survey.WithLogger(w.logger), survey.WithHooks(debugHooks(w.logger)))
	if err != nil {
		return false, err
	}

	if _, err := resume(ctx, engine, w.backend.Store, w.opts.SessionID, w.runner.Output, false); err != nil {
		return false, err
	}
	if engine.CurrentNodeID() == domain.EndID {
		engine.Reset()
	}

	stop := persist(ctx, engine, w.backend.Store, w.opts.SessionID, w.logger)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reloaded := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case _, ok := <-w.changes:
			if ok {
				close(reloaded)
				cancel()
			}
		case <-runCtx.Done():
		}
	}()

	runErr := w.runner.RunContext(runCtx, engine)
	cancel()
	<-done

	select {
	case <-reloaded:
		return true, nil
	default:
	}
	if ctx.Err() != nil {
		return false, nil
	}
	if runErr != nil {
		return false, runErr
	}

	if engine.CurrentNodeID() == domain.EndID {
		printSystemMessage(w.runner.Output, "Survey finished. Save the graph to start again, Ctrl+C to quit.")
		return w.waitChange(ctx), nil
	}
	return false, nil
}

func (w *watcher) waitChange(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case _, ok := <-w.changes:
		return ok
	}
}
