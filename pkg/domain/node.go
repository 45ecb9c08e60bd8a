package domain

import "sort"

// Reserved node identifiers.
const (
	// EndID is the terminal node. It is never queued and never marked visited.
	EndID = "End"
	// StartID is the conventional entry node used when a graph does not name one.
	StartID = "Start"
)

// Node is a single question screen with branching options and a default successor.
// Nodes are values: the graph hands out copies and nothing mutates them after construction.
type Node struct {
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Text string `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`

	// Options maps an option key to the ordered node ids it schedules when selected.
	Options map[string][]string `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`

	// OptionOrder is a display hint for presentation layers.
	// The navigation engine never reads it; queue order is always lexical by key.
	OptionOrder []string `json:"option_order,omitempty" yaml:"option_order,omitempty" mapstructure:"option_order"`

	// MinSelect and MaxSelect bound multi-select answers. MaxSelect 0 means unbounded.
	MinSelect  int  `json:"min_select,omitempty" yaml:"min_select,omitempty" mapstructure:"min_select"`
	MaxSelect  int  `json:"max_select,omitempty" yaml:"max_select,omitempty" mapstructure:"max_select"`
	AllowMulti bool `json:"allow_multi,omitempty" yaml:"allow_multi,omitempty" mapstructure:"allow_multi"`

	// DefaultNext is used when no branching applies. Empty means EndID.
	DefaultNext string `json:"default_next,omitempty" yaml:"default_next,omitempty" mapstructure:"default_next"`
}

// Next returns the declared default successor, resolving an empty value to EndID.
func (n Node) Next() string {
	if n.DefaultNext == "" {
		return EndID
	}
	return n.DefaultNext
}

// IsEnd reports whether the node is the terminal node.
func (n Node) IsEnd() bool {
	return n.ID == EndID
}

// DisplayOrder returns the option keys in the order a presentation layer should show them:
// OptionOrder first, then any remaining keys sorted.
func (n Node) DisplayOrder() []string {
	seen := make(map[string]bool, len(n.Options))
	out := make([]string, 0, len(n.Options))
	for _, k := range n.OptionOrder {
		if _, ok := n.Options[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	rest := make([]string, 0, len(n.Options))
	for k := range n.Options {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Options != nil {
		out.Options = make(map[string][]string, len(n.Options))
		for k, v := range n.Options {
			out.Options[k] = append([]string(nil), v...)
		}
	}
	if n.OptionOrder != nil {
		out.OptionOrder = append([]string(nil), n.OptionOrder...)
	}
	return out
}
