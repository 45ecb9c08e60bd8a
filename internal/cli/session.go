package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/survey"
	"github.com/aretw0/survey/internal/presentation/tui"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/ports"
)

// RunOptions configures an interactive run.
type RunOptions struct {
	SessionID string
	Headless  bool
	Fresh     bool

	// Input and Output default to os.Stdin and os.Stdout.
	Input  io.Reader
	Output io.Writer
}

// RunSession runs one survey in the terminal. With a SessionID the progress is
// stored after every change and resumed on the next run.
func RunSession(ctx context.Context, cfg Config, opts RunOptions) error {
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	graph, err := cfg.LoadGraph(ctx, logger)
	if err != nil {
		return err
	}

	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	engine, err := survey.New(graph, survey.WithLogger(logger), survey.WithHooks(debugHooks(logger)))
	if err != nil {
		return err
	}

	r := newRunner(opts)
	defer r.Close()
	if !opts.Headless {
		tui.PrintBanner(r.Output, survey.Version)
	}

	if opts.Fresh && opts.SessionID != "" {
		if err := backend.Store.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("reset session %s: %w", opts.SessionID, err)
		}
	}
	if _, err := resume(ctx, engine, backend.Store, opts.SessionID, r.Output, opts.Headless); err != nil {
		return err
	}

	stop := persist(ctx, engine, backend.Store, opts.SessionID, logger)
	defer stop()

	runErr := r.RunContext(ctx, engine)
	logger.Info("session ended", "session_id", opts.SessionID, "node", engine.CurrentNodeID(), "finished", engine.IsFinished())
	return handleRunError(runErr)
}

func newRunner(opts RunOptions) *survey.Runner {
	r := survey.NewRunner()
	r.Input = opts.Input
	if r.Input == nil {
		r.Input = os.Stdin
	}
	r.Output = opts.Output
	if r.Output == nil {
		r.Output = os.Stdout
	}
	r.Headless = opts.Headless

	if f, ok := r.Output.(*os.File); ok && !opts.Headless && tui.IsInteractive(f) {
		r.Renderer = tui.NewRenderer()
	}
	return r
}

// resume restores the stored session into engine. A snapshot that no longer fits
// the graph is discarded and the survey starts over.
func resume(ctx context.Context, engine *survey.Engine, store ports.StateStore, sessionID string, w io.Writer, quiet bool) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	snap, err := store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		if !quiet {
			printSystemMessage(w, "Session '%s' active.", sessionID)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if err := engine.Restore(snap); err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) || errors.Is(err, domain.ErrInvalidSnapshot) {
			if !quiet {
				printSystemMessage(w, "Session '%s' no longer matches the graph, starting over.", sessionID)
			}
			return false, nil
		}
		return false, err
	}

	if !quiet {
		printSystemMessage(w, "Resuming at '%s' node...", engine.CurrentNodeID())
	}
	return true, nil
}

// persist saves a snapshot after every engine event. The returned func stops it.
func persist(ctx context.Context, engine *survey.Engine, store ports.StateStore, sessionID string, logger *slog.Logger) func() {
	if sessionID == "" {
		return func() {}
	}
	return engine.Subscribe(func(ev domain.Event) {
		if err := store.Save(context.WithoutCancel(ctx), sessionID, engine.Snapshot()); err != nil {
			logger.Error("failed to save session", "session_id", sessionID, "event", ev.Type, "err", err)
		}
	})
}

func debugHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnEvent: func(ev domain.Event) {
			logger.Debug("engine event", "type", ev.Type, "node_id", ev.NodeID, "from", ev.From, "pending", ev.Pending)
		},
	}
}

func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// handleRunError maps an interrupted run to a clean exit.
func handleRunError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
