package survey

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/survey/pkg/domain"
)

// Runner drives an Engine from a line-oriented reader and writer.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// One pump per Runner: successive RunContext calls share it so a cancelled
	// run never leaves a second reader competing for Input.
	pumpOnce sync.Once
	lines    chan string
	readErr  error

	stopOnce  sync.Once
	closeOnce sync.Once
	stopped   chan struct{}
}

// ContentRenderer transforms a node prompt before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run is RunContext with a background context.
func (r *Runner) Run(engine *Engine) error {
	return r.RunContext(context.Background(), engine)
}

// RunContext loops until END is reached, the input is exhausted, the user types exit
// or ctx is done (in which case ctx.Err() is returned).
//
// On a node with options the line is a comma or space separated list of option keys
// or their 1-based display numbers. On a node without options a non-empty line is
// stored as the text answer. An empty line advances without changing the answer and
// "back" undoes the last move.
func (r *Runner) RunContext(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	w := r.Output

	if !r.Headless {
		fmt.Fprintln(w, "--- Survey ---")
	}

	lastRendered := ""
	for {
		node := engine.CurrentNode()
		if node.IsEnd() {
			r.summary(engine)
			return nil
		}

		if node.ID != lastRendered {
			r.render(node)
			lastRendered = node.ID
		}

		if !r.Headless {
			fmt.Fprint(w, "> ")
		}
		text, err := r.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		input := strings.TrimSpace(text)

		switch input {
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return nil
		case "back":
			if !engine.OnBack() {
				fmt.Fprintln(w, "Nothing to go back to.")
			}
			lastRendered = ""
			continue
		}

		if input != "" {
			if err := r.answer(engine, node, input); err != nil {
				if errors.Is(err, domain.ErrValidation) {
					fmt.Fprintf(w, "Invalid answer: %v\n", err)
					continue
				}
				return err
			}
		}

		engine.AdvanceToNext()
	}
}

// Close stops the input pump. A pump blocked inside Input.Read exits once that
// read returns. Runs after Close end immediately as if Input were exhausted.
func (r *Runner) Close() {
	stopped := r.stop()
	r.closeOnce.Do(func() { close(stopped) })
}

func (r *Runner) stop() chan struct{} {
	r.stopOnce.Do(func() { r.stopped = make(chan struct{}) })
	return r.stopped
}

// readLine waits for the next input line. The pump goroutine closes the channel
// once Input is exhausted or the Runner is closed.
func (r *Runner) readLine(ctx context.Context) (string, error) {
	stopped := r.stop()
	r.pumpOnce.Do(func() {
		r.lines = make(chan string)
		go func() {
			defer close(r.lines)
			br := bufio.NewReader(r.Input)
			for {
				text, err := br.ReadString('\n')
				if text != "" {
					select {
					case r.lines <- text:
					case <-stopped:
						return
					}
				}
				if err != nil {
					if !errors.Is(err, io.EOF) {
						r.readErr = fmt.Errorf("input error: %w", err)
					}
					return
				}
			}
		}()
	})

	select {
	case <-stopped:
		return "", io.EOF
	default:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-stopped:
		return "", io.EOF
	case text, ok := <-r.lines:
		if !ok {
			if r.readErr != nil {
				return "", r.readErr
			}
			return "", io.EOF
		}
		return text, nil
	}
}

func (r *Runner) render(node domain.Node) {
	prompt := node.Text
	if prompt == "" {
		prompt = node.ID
	}
	if r.Renderer != nil {
		if rendered, err := r.Renderer(prompt); err == nil {
			prompt = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(prompt))

	for i, key := range node.DisplayOrder() {
		fmt.Fprintf(r.Output, "  %d) %s\n", i+1, key)
	}
	if node.AllowMulti {
		if node.MaxSelect > 0 {
			fmt.Fprintf(r.Output, "  (choose %d to %d)\n", node.MinSelect, node.MaxSelect)
		} else {
			fmt.Fprintf(r.Output, "  (choose at least %d)\n", node.MinSelect)
		}
	}
}

func (r *Runner) answer(engine *Engine, node domain.Node, input string) error {
	if len(node.Options) == 0 {
		engine.UpdateTextAnswer(node.ID, input)
		return nil
	}

	keys := parseSelection(node, input)
	if !node.AllowMulti && len(keys) > 1 {
		keys = keys[:1]
	}
	return engine.UpdateChoiceAnswer(node.ID, keys)
}

// parseSelection splits input into option keys, resolving display numbers.
func parseSelection(node domain.Node, input string) []string {
	order := node.DisplayOrder()
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, known := node.Options[f]; !known {
			if n, err := strconv.Atoi(f); err == nil && n >= 1 && n <= len(order) {
				f = order[n-1]
			}
		}
		keys = append(keys, f)
	}
	return keys
}

func (r *Runner) summary(engine *Engine) {
	fmt.Fprintln(r.Output, "Done.")

	answers := engine.AllAnswers()
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		switch v := answers[id].(type) {
		case []string:
			fmt.Fprintf(r.Output, "%s: %s\n", id, strings.Join(v, ", "))
		default:
			fmt.Fprintf(r.Output, "%s: %v\n", id, v)
		}
	}
}
