package validator

import (
	"testing"

	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGraph(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		b := dsl.New()
		b.Add("Start").Next("Q1")
		b.Add("Q1").Option("A", "A1").Option("B", domain.EndID)
		b.Add("A1")
		g, err := b.Build()
		require.NoError(t, err)

		assert.NoError(t, ValidateGraph(g))
	})

	t.Run("broken link", func(t *testing.T) {
		b := dsl.New()
		b.Add("Start").Option("Go", "ghost_node").Next("phantom")
		g, err := b.Build()
		require.NoError(t, err)

		err = ValidateGraph(g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 2 errors")
		assert.Contains(t, err.Error(), "Missing node: 'ghost_node' (option 'Go' of 'Start')")
		assert.Contains(t, err.Error(), "Missing node: 'phantom' (default of 'Start')")
	})

	t.Run("unreachable", func(t *testing.T) {
		b := dsl.New()
		b.Add("Start")
		b.Add("Island").Next("Start")
		g, err := b.Build()
		require.NoError(t, err)

		err = ValidateGraph(g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unreachable node: 'Island'")
		assert.NotContains(t, err.Error(), "'End'")
	})

	t.Run("broken link on unreachable node", func(t *testing.T) {
		b := dsl.New()
		b.Add("Start")
		b.Add("Orphan").Option("Go", "Nowhere").Next("Ghost")
		g, err := b.Build()
		require.NoError(t, err)

		err = ValidateGraph(g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 3 errors")
		assert.Contains(t, err.Error(), "Missing node: 'Nowhere' (option 'Go' of 'Orphan')")
		assert.Contains(t, err.Error(), "Missing node: 'Ghost' (default of 'Orphan')")
		assert.Contains(t, err.Error(), "Unreachable node: 'Orphan'")
	})

	t.Run("cycles terminate", func(t *testing.T) {
		b := dsl.New()
		b.Add("Start").Next("Loop")
		b.Add("Loop").Option("Again", "Start")
		g, err := b.Build()
		require.NoError(t, err)

		assert.NoError(t, ValidateGraph(g))
	})
}
