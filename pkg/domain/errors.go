package domain

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when a node id is not part of the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("answer validation failed")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSnapshot is returned when a serialized state cannot be decoded or applied.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ErrUnknownCommand is returned when a Command carries an unsupported kind.
var ErrUnknownCommand = errors.New("unknown command")

// ValidationError reports a multi-select answer outside the node's selection bounds.
type ValidationError struct {
	NodeID string
	Count  int
	Min    int
	Max    int // 0 means unbounded
}

func (e *ValidationError) Error() string {
	if e.Max == 0 {
		return fmt.Sprintf("node %q: %d selections, want at least %d", e.NodeID, e.Count, e.Min)
	}
	return fmt.Sprintf("node %q: %d selections, want between %d and %d", e.NodeID, e.Count, e.Min, e.Max)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
