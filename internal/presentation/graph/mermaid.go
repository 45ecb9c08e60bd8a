package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/survey/pkg/domain"
)

// Overlay contains session state to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	PendingNodes []string
	CurrentNode  string
}

// OverlayFrom builds the overlay of a session state.
func OverlayFrom(s *domain.State) *Overlay {
	if s == nil {
		return nil
	}
	return &Overlay{
		VisitedNodes: append([]string(nil), s.Visited...),
		PendingNodes: s.PendingIDs(),
		CurrentNode:  s.CurrentNodeID,
	}
}

// GenerateMermaid produces a Mermaid flowchart of the graph.
// Shapes:
//   - Start: ((Circle))
//   - End: (((Double circle)))
//   - Multi-select question: [/Parallelogram/]
//   - Single-select question: {Rhombus}
//   - Default: [Rectangle]
//
// Option edges are labelled with their key. The default successor of a node with
// options is drawn dotted since it only applies when nothing is queued.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == g.StartID():
			opener, closer = "((", "))"
		case node.IsEnd():
			opener, closer = "(((", ")))"
		case node.AllowMulti:
			opener, closer = "[/", "/]"
		case len(node.Options) > 0:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.ID), closer)

		if node.IsEnd() {
			continue
		}

		for _, key := range node.DisplayOrder() {
			label := escapeLabel(key)
			for _, target := range node.Options[key] {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(target))
			}
		}

		arrow := "-->"
		if len(node.Options) > 0 {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(node.Next()))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef pending fill:#f3e5f5,stroke:#6a1b9a,stroke-dasharray:4 2,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		writeClass(&sb, overlay.VisitedNodes, "visited")
		writeClass(&sb, overlay.PendingNodes, "pending")
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
