package dsl

import "github.com/aretw0/survey/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
}

// Text sets the prompt of the node.
func (n *NodeBuilder) Text(content string) *NodeBuilder {
	n.node.Text = content
	return n
}

// Option adds an option key that schedules targets, in order, when selected.
// Calling it again for the same key appends targets.
func (n *NodeBuilder) Option(key string, targets ...string) *NodeBuilder {
	if n.node.Options == nil {
		n.node.Options = make(map[string][]string)
	}
	if _, ok := n.node.Options[key]; !ok {
		n.node.OptionOrder = append(n.node.OptionOrder, key)
	}
	n.node.Options[key] = append(n.node.Options[key], targets...)
	return n
}

// Order overrides the display order of option keys. It never changes scheduling order.
func (n *NodeBuilder) Order(keys ...string) *NodeBuilder {
	n.node.OptionOrder = append([]string(nil), keys...)
	return n
}

// Multi allows several keys per answer, bounded by min and max (0 = unbounded).
func (n *NodeBuilder) Multi(min, max int) *NodeBuilder {
	n.node.AllowMulti = true
	n.node.MinSelect = min
	n.node.MaxSelect = max
	return n
}

// Next sets the default successor used when the pending queue is empty.
func (n *NodeBuilder) Next(target string) *NodeBuilder {
	n.node.DefaultNext = target
	return n
}

// Terminal makes the node lead straight to END.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.DefaultNext = domain.EndID
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
