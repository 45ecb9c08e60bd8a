package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/survey/internal/logging"
	"github.com/aretw0/survey/internal/runtime"
	"github.com/aretw0/survey/pkg/domain"
)

// Command and Result are the transport forms of one engine operation.
type (
	Command     = domain.Command
	CommandKind = domain.CommandKind
	Result      = domain.Result
)

const (
	CommandAnswer       = domain.CommandAnswer
	CommandText         = domain.CommandText
	CommandEnqueue      = domain.CommandEnqueue
	CommandAdvance      = domain.CommandAdvance
	CommandBack         = domain.CommandBack
	CommandClearAnswers = domain.CommandClearAnswers
	CommandReset        = domain.CommandReset
)

// Engine is the high-level entry point for the survey library.
// It owns one session state and serializes every operation on it, so it is safe
// to drive from concurrent UI callbacks. Accessors return copies.
type Engine struct {
	mu      sync.Mutex
	runtime *runtime.Engine
	state   *domain.State

	hooks  domain.Hooks
	logger *slog.Logger

	subsMu sync.Mutex
	subs   map[int]func(domain.Event)
	nextID int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers an observer called after every state change.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// New creates an engine positioned at the graph's start node.
func New(graph *domain.Graph, opts ...Option) (*Engine, error) {
	if graph == nil {
		return nil, errors.New("survey: graph is required")
	}

	e := &Engine{subs: make(map[int]func(domain.Event))}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	e.runtime = runtime.NewEngine(graph, runtime.WithLogger(e.logger))
	e.state = e.runtime.Start()
	return e, nil
}

// Graph returns the node catalogue.
func (e *Engine) Graph() *domain.Graph {
	return e.runtime.Graph()
}

// Subscribe registers fn for every event emitted after a successful change.
// Events are delivered outside the engine lock. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(domain.Event)) func() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	id := e.nextID
	e.nextID++
	e.subs[id] = fn

	return func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		delete(e.subs, id)
	}
}

func (e *Engine) emit(events []domain.Event) {
	if len(events) == 0 {
		return
	}

	e.subsMu.Lock()
	subs := make([]func(domain.Event), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subsMu.Unlock()

	for _, ev := range events {
		if e.hooks.OnEvent != nil {
			e.hooks.OnEvent(ev)
		}
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Apply runs a command atomically against the engine state.
// A failed command leaves the state unchanged.
func (e *Engine) Apply(cmd Command) (Result, error) {
	e.mu.Lock()
	next, res, err := e.runtime.Apply(e.state, cmd)
	e.state = next
	e.mu.Unlock()

	e.emit(res.Events)
	return res, err
}

type answerConfig struct {
	replaceQueued bool
}

// AnswerOption configures a choice answer update.
type AnswerOption func(*answerConfig)

// WithReplaceQueued selects how the answer's children reach the queue.
// True (the default) replaces the node's previous branch at the front of the queue;
// false keeps it and appends new children at the tail.
func WithReplaceQueued(replace bool) AnswerOption {
	return func(c *answerConfig) {
		c.replaceQueued = replace
	}
}

// UpdateChoiceAnswer stores selected option keys for nodeID and reconciles the queue.
// It returns domain.ErrNodeNotFound for unknown nodes and a *domain.ValidationError
// when a multi-select answer is outside the node's bounds.
func (e *Engine) UpdateChoiceAnswer(nodeID string, selections []string, opts ...AnswerOption) error {
	cfg := answerConfig{replaceQueued: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	_, err := e.Apply(Command{
		Kind:       CommandAnswer,
		NodeID:     nodeID,
		Selections: selections,
		Append:     !cfg.replaceQueued,
	})
	return err
}

// UpdateSingleAnswer is UpdateChoiceAnswer for one key. An empty key clears the answer.
func (e *Engine) UpdateSingleAnswer(nodeID, selection string, opts ...AnswerOption) error {
	var selections []string
	if selection != "" {
		selections = []string{selection}
	}
	return e.UpdateChoiceAnswer(nodeID, selections, opts...)
}

// UpdateTextAnswer overwrites the free-text answer of nodeID.
func (e *Engine) UpdateTextAnswer(nodeID, text string) {
	_, _ = e.Apply(Command{Kind: CommandText, NodeID: nodeID, Text: text})
}

// ChoiceAnswer returns a copy of the stored choice answer.
func (e *Engine) ChoiceAnswer(nodeID string) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sel, ok := e.state.Answers.Choices[nodeID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), sel...), true
}

// TextAnswer returns the stored free text.
func (e *Engine) TextAnswer(nodeID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	text, ok := e.state.Answers.Texts[nodeID]
	return text, ok
}

// HasAnswerFor reports whether nodeID has a choice or text answer.
func (e *Engine) HasAnswerFor(nodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Answers.Has(nodeID)
}

// AllAnswers returns the merged view of both answer maps.
func (e *Engine) AllAnswers() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Answers.Merged()
}

// ClearAnswers empties both answer maps without moving.
func (e *Engine) ClearAnswers() {
	_, _ = e.Apply(Command{Kind: CommandClearAnswers})
}

// Reset discards all progress and returns to the start node.
func (e *Engine) Reset() {
	_, _ = e.Apply(Command{Kind: CommandReset})
}

// Enqueue schedules nodeID at the tail of the queue.
// It returns false for END, unknown ids and ids already queued.
func (e *Engine) Enqueue(nodeID string) bool {
	res, _ := e.Apply(Command{Kind: CommandEnqueue, NodeID: nodeID})
	return res.OK
}

// PendingCount returns the queue length.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.Pending)
}

// PendingQueueSnapshot returns a copy of the queue.
func (e *Engine) PendingQueueSnapshot() []domain.PendingEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.PendingEntry{}, e.state.Pending...)
}

// OriginMapSnapshot returns a copy of the origin map.
func (e *Engine) OriginMapSnapshot() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Navigation.Clone().Origins
}

// VisitedSnapshot returns the visited ids, sorted.
func (e *Engine) VisitedSnapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.state.Visited...)
}

// ChoiceAnswersSnapshot returns a copy of every choice answer.
func (e *Engine) ChoiceAnswersSnapshot() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Answers.Clone().Choices
}

// TextAnswersSnapshot returns a copy of every text answer.
func (e *Engine) TextAnswersSnapshot() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Answers.Clone().Texts
}

// CurrentNodeID returns the active node id.
func (e *Engine) CurrentNodeID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CurrentNodeID
}

// CurrentNode returns a copy of the active node.
func (e *Engine) CurrentNode() domain.Node {
	id := e.CurrentNodeID()
	node, err := e.Graph().Node(id)
	if err != nil {
		e.logger.Error("current node missing from graph", "node", id, "err", err)
		return domain.Node{ID: id}
	}
	return node
}

// PeekNext returns the node AdvanceToNext would move to.
func (e *Engine) PeekNext() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.PeekNext(e.state)
}

// PeekNextFrom returns the graph default successor of nodeID, ignoring the queue.
func (e *Engine) PeekNextFrom(nodeID string) string {
	return e.runtime.PeekNextFrom(nodeID)
}

// GetNextFrom is PeekNext for the current node and PeekNextFrom for any other.
func (e *Engine) GetNextFrom(nodeID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.GetNextFrom(e.state, nodeID)
}

// AdvanceToNext moves forward one step and returns the destination.
func (e *Engine) AdvanceToNext() string {
	res, _ := e.Apply(Command{Kind: CommandAdvance})
	return res.NodeID
}

// OnBack restores the previous navigation snapshot. Answers are kept.
func (e *Engine) OnBack() bool {
	res, _ := e.Apply(Command{Kind: CommandBack})
	return res.OK
}

// CanGoBack reports whether OnBack would succeed.
func (e *Engine) CanGoBack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.CanGoBack(e.state)
}

// CanGoNext reports whether the next step leads anywhere but END.
func (e *Engine) CanGoNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.CanGoNext(e.state)
}

// IsFinished reports whether the next step is END.
func (e *Engine) IsFinished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.IsFinished(e.state)
}

// HistoryNodeIDs returns the node of each history entry, oldest first.
func (e *Engine) HistoryNodeIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.HistoryNodeIDs()
}

// State returns a deep copy of the full session state.
func (e *Engine) State() *domain.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Snapshot captures the full state, history included.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.Snapshot(e.state)
}

// Restore replaces the whole state with snap. On error the state is unchanged.
func (e *Engine) Restore(snap domain.Snapshot) error {
	e.mu.Lock()
	next, err := e.runtime.Restore(snap)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = next
	ev := domain.Event{Type: domain.EventRestored, NodeID: next.CurrentNodeID, Pending: len(next.Pending)}
	e.mu.Unlock()

	e.emit([]domain.Event{ev})
	return nil
}

// SnapshotJSON encodes Snapshot as JSON.
func (e *Engine) SnapshotJSON() ([]byte, error) {
	data, err := json.Marshal(e.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// RestoreFromJSON decodes data and restores it.
// Undecodable input returns domain.ErrInvalidSnapshot.
func (e *Engine) RestoreFromJSON(data []byte) error {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return e.Restore(snap)
}
