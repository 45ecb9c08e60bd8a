package domain

// CommandKind names a state transition.
type CommandKind string

const (
	CommandAnswer       CommandKind = "answer"
	CommandText         CommandKind = "text"
	CommandEnqueue      CommandKind = "enqueue"
	CommandAdvance      CommandKind = "advance"
	CommandBack         CommandKind = "back"
	CommandClearAnswers CommandKind = "clear_answers"
	CommandReset        CommandKind = "reset"
)

// Command is the serializable form of one engine operation.
// Remote adapters decode it from requests and apply it to a loaded session.
//
// NodeID defaults to the current node for answer and text commands. Append keeps
// the node's existing branch and adds new children at the tail.
type Command struct {
	Kind       CommandKind `json:"kind"`
	NodeID     string      `json:"node_id,omitempty"`
	Selections []string    `json:"selections,omitempty"`
	Text       string      `json:"text,omitempty"`
	Append     bool        `json:"append,omitempty"`
}

// Result reports the outcome of an applied command.
type Result struct {
	// NodeID is the node the engine stands on afterwards.
	NodeID string `json:"node_id"`
	// OK is false for commands that were accepted but changed nothing (failed enqueue, back with empty history).
	OK     bool    `json:"ok"`
	Events []Event `json:"events,omitempty"`
}
