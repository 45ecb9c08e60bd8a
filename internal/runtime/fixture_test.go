package runtime_test

import (
	"testing"

	"github.com/aretw0/survey/internal/runtime"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/stretchr/testify/require"
)

// surveyGraph is the reference questionnaire:
//
//	Start -> Q1 {Yes -> Q2, No -> End}
//	Q2 multi {A -> [A1, A2], B -> [B1], C -> [C1]} (min 1, max 2)
//	B1 {Go -> [Deep]}
//	A1, A2, B1, C1, Deep -> Q3 -> End
func surveyGraph(t *testing.T, opts ...domain.GraphOption) *domain.Graph {
	t.Helper()
	g, err := domain.NewGraph("Start", []domain.Node{
		{ID: "Start", Text: "Welcome", DefaultNext: "Q1"},
		{ID: "Q1", Text: "Continue?", Options: map[string][]string{
			"Yes": {"Q2"},
			"No":  {domain.EndID},
		}},
		{ID: "Q2", Text: "Pick up to two", AllowMulti: true, MinSelect: 1, MaxSelect: 2,
			Options: map[string][]string{
				"A": {"A1", "A2"},
				"B": {"B1"},
				"C": {"C1"},
			},
			OptionOrder: []string{"C", "B", "A"},
			DefaultNext: "Q3",
		},
		{ID: "A1", DefaultNext: "Q3"},
		{ID: "A2", DefaultNext: "Q3"},
		{ID: "B1", Options: map[string][]string{"Go": {"Deep"}}, DefaultNext: "Q3"},
		{ID: "C1", DefaultNext: "Q3"},
		{ID: "Deep", DefaultNext: "Q3"},
		{ID: "Q3", Text: "Anything else?"},
		{ID: "Dangling", DefaultNext: "Nowhere"},
	}, opts...)
	require.NoError(t, err)
	return g
}

func newEngine(t *testing.T, opts ...domain.GraphOption) *runtime.Engine {
	t.Helper()
	return runtime.NewEngine(surveyGraph(t, opts...))
}

// atQ2 walks Start -> Q1 (Yes) -> Q2.
func atQ2(t *testing.T, e *runtime.Engine) *domain.State {
	t.Helper()
	s, dest := e.Advance(e.Start())
	require.Equal(t, "Q1", dest)
	s, _, err := e.UpdateChoice(s, "Q1", []string{"Yes"}, true)
	require.NoError(t, err)
	s, dest = e.Advance(s)
	require.Equal(t, "Q2", dest)
	return s
}

func answer(t *testing.T, e *runtime.Engine, s *domain.State, nodeID string, replace bool, keys ...string) *domain.State {
	t.Helper()
	next, _, err := e.UpdateChoice(s, nodeID, keys, replace)
	require.NoError(t, err)
	return next
}
