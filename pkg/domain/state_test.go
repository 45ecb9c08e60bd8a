package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/survey/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigation_Visited(t *testing.T) {
	nav := domain.NewState("Start").Navigation

	nav.MarkVisited("Q2")
	nav.MarkVisited("Q1")
	nav.MarkVisited("Q2")
	nav.MarkVisited(domain.EndID)
	assert.Equal(t, []string{"Q1", "Q2"}, nav.Visited)
	assert.True(t, nav.IsVisited("Q1"))
	assert.False(t, nav.IsVisited(domain.EndID))

	nav.Unvisit("Q1")
	nav.Unvisit("missing")
	assert.Equal(t, []string{"Q2"}, nav.Visited)
}

func TestState_CloneIsDeep(t *testing.T) {
	s := domain.NewState("Start")
	s.Pending = append(s.Pending, domain.PendingEntry{NodeID: "Q2", Origin: "Q1"})
	s.Origins["Q1"] = []string{"Q2"}
	s.Answers.Choices["Q1"] = []string{"Yes"}
	s.History = append(s.History, s.Navigation.Clone())

	c := s.Clone()
	c.Pending[0].NodeID = "X"
	c.Origins["Q1"][0] = "X"
	c.Answers.Choices["Q1"][0] = "No"
	c.History[0].Pending[0].NodeID = "X"

	assert.Equal(t, "Q2", s.Pending[0].NodeID)
	assert.Equal(t, []string{"Q2"}, s.Origins["Q1"])
	assert.Equal(t, []string{"Yes"}, s.Answers.Choices["Q1"])
	assert.Equal(t, "Q2", s.History[0].Pending[0].NodeID)
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	s := domain.NewState("Q2")
	s.Pending = []domain.PendingEntry{{NodeID: "Q2_A1", Origin: "Q2"}, {NodeID: "Q3"}}
	s.Origins["Q2"] = []string{"Q2_A1"}
	s.MarkVisited("Q1")
	s.MarkVisited("Q2")
	s.Answers.Choices["Q2"] = []string{"C", "A"}
	s.Answers.Texts["Q3"] = "memo"
	s.History = append(s.History, domain.NewState("Start").Navigation)

	snap := domain.NewSnapshot(s)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded domain.Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	if diff := cmp.Diff(snap, decoded); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.SnapshotVersion, decoded.Version)
	assert.True(t, decoded.Pending[1].External())
}

func TestAnswers_Merged(t *testing.T) {
	a := domain.NewAnswers()
	a.Choices["Q1"] = []string{"Yes"}
	a.Texts["Q3"] = "hello"

	m := a.Merged()
	assert.Equal(t, []string{"Yes"}, m["Q1"])
	assert.Equal(t, "hello", m["Q3"])
	assert.True(t, a.Has("Q1"))
	assert.True(t, a.Has("Q3"))

	a.Forget("Q1")
	assert.False(t, a.Has("Q1"))
}

func TestState_HistoryNodeIDs(t *testing.T) {
	s := domain.NewState("Q2")
	s.History = []domain.Navigation{{CurrentNodeID: "Start"}, {CurrentNodeID: "Q1"}}
	assert.Equal(t, []string{"Start", "Q1"}, s.HistoryNodeIDs())
}
