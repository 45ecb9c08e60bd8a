package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/survey/pkg/domain"
)

// ValidateGraph checks every node for broken links, then reports the nodes that
// cannot be reached from the graph entry.
// The engine tolerates both at runtime (dangling targets resolve to END and are never
// queued), so they are authoring mistakes rather than hard failures.
func ValidateGraph(g *domain.Graph) error {
	var errs []string

	for _, node := range g.Nodes() {
		if node.IsEnd() {
			continue
		}
		for _, key := range node.DisplayOrder() {
			if strings.TrimSpace(key) == "" {
				errs = append(errs, fmt.Sprintf("Blank option key on node '%s'", node.ID))
			}
			for _, target := range node.Options[key] {
				if !g.Has(target) {
					errs = append(errs, fmt.Sprintf("Missing node: '%s' (option '%s' of '%s')", target, key, node.ID))
				}
			}
		}
		if next := node.Next(); !g.Has(next) {
			errs = append(errs, fmt.Sprintf("Missing node: '%s' (default of '%s')", next, node.ID))
		}
	}

	visited := reachable(g)
	var unreachable []string
	for _, id := range g.IDs() {
		if id != domain.EndID && !visited[id] {
			unreachable = append(unreachable, id)
		}
	}
	sort.Strings(unreachable)
	for _, id := range unreachable {
		errs = append(errs, fmt.Sprintf("Unreachable node: '%s'", id))
	}

	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}

// reachable walks option and default edges breadth-first from the entry node.
func reachable(g *domain.Graph) map[string]bool {
	visited := map[string]bool{}
	queue := []string{g.StartID()}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node, err := g.Node(currentID)
		if err != nil || node.IsEnd() {
			continue
		}
		for _, targets := range node.Options {
			for _, target := range targets {
				if g.Has(target) && !visited[target] {
					queue = append(queue, target)
				}
			}
		}
		if next := node.Next(); g.Has(next) && !visited[next] {
			queue = append(queue, next)
		}
	}
	return visited
}
