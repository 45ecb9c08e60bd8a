package tests

import (
	"context"
	"testing"

	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/ports"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
// wantIDs lists node ids the loaded graph must contain besides END.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, startID string, wantIDs []string) {
	t.Helper()

	g, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("StartID", func(t *testing.T) {
		if g.StartID() != startID {
			t.Errorf("start mismatch. got %q, want %q", g.StartID(), startID)
		}
	})

	t.Run("Nodes", func(t *testing.T) {
		for _, id := range wantIDs {
			if !g.Has(id) {
				t.Errorf("expected node %q in graph", id)
			}
		}
		if !g.Has(domain.EndID) {
			t.Errorf("expected %s node in graph", domain.EndID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := g.Node("non-existent-node"); err == nil {
			t.Error("expected error for non-existent node, got nil")
		}
	})

	t.Run("Stable", func(t *testing.T) {
		again, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("second Load failed: %v", err)
		}
		if len(again.IDs()) != len(g.IDs()) {
			t.Errorf("node count changed between loads: %d vs %d", len(g.IDs()), len(again.IDs()))
		}
	})
}
