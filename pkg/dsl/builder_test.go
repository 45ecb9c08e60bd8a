package dsl

import (
	"testing"

	"github.com/aretw0/survey/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New().MaxHistory(5)

	b.Add("Start").
		Text("Hello, DSL!").
		Next("Q1")

	b.Add("Q1").
		Text("Pick").
		Multi(1, 2).
		Option("B", "B1").
		Option("A", "A1", "A2").
		Option("A", "A3")

	b.Add("A1")
	b.Add("B1").Terminal()

	g, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "Start", g.StartID())
	assert.Equal(t, 5, g.MaxHistory())

	start, err := g.Node("Start")
	require.NoError(t, err)
	assert.Equal(t, "Hello, DSL!", start.Text)
	assert.Equal(t, "Q1", start.DefaultNext)

	q1, err := g.Node("Q1")
	require.NoError(t, err)
	assert.True(t, q1.AllowMulti)
	assert.Equal(t, 1, q1.MinSelect)
	assert.Equal(t, 2, q1.MaxSelect)
	assert.Equal(t, []string{"A1", "A2", "A3"}, q1.Options["A"])
	assert.Equal(t, []string{"B", "A"}, q1.DisplayOrder(), "declaration order is the display order")

	b1, _ := g.Node("B1")
	assert.Equal(t, domain.EndID, b1.DefaultNext)
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := New()
	first := b.Add("Start")
	second := b.Add("Start")
	assert.Same(t, first, second)
	assert.Len(t, b.Definition().Nodes, 1)
}

func TestBuilder_Order(t *testing.T) {
	b := New()
	b.Add("Start").Option("A").Option("B").Order("B", "A")

	n := b.Add("Start").Build()
	assert.Equal(t, []string{"B", "A"}, n.OptionOrder)
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("missing start", func(t *testing.T) {
		b := New().Start("Welcome")
		b.Add("Other")
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("inverted bounds", func(t *testing.T) {
		b := New()
		b.Add("Start").Multi(3, 1)
		_, err := b.Build()
		assert.Error(t, err)
	})
}
