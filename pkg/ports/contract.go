package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/survey/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractSnapshot is a non-trivial session: queued children, an external entry,
// both answer kinds and one history entry.
func contractSnapshot() domain.Snapshot {
	s := domain.NewState("Q2")
	s.Pending = []domain.PendingEntry{
		{NodeID: "A1", Origin: "Q2"},
		{NodeID: "A2", Origin: "Q2"},
		{NodeID: "Q3"},
	}
	s.Origins["Q1"] = []string{"Q2"}
	s.Origins["Q2"] = []string{"A1", "A2"}
	s.MarkVisited("Q1")
	s.MarkVisited("Q2")
	s.Answers.Choices["Q2"] = []string{"C", "A"}
	s.Answers.Texts["Q3"] = "free text"
	s.History = append(s.History, domain.NewState("Q1").Navigation)
	return domain.NewSnapshot(s)
}

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot()

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		if diff := cmp.Diff(snap, loaded); diff != "" {
			t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		next := domain.NewSnapshot(domain.NewState("Q3"))
		require.NoError(t, store.Save(ctx, sessionID, next))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Q3", loaded.CurrentNodeID)
		assert.Empty(t, loaded.Pending)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSnapshot(domain.NewState("Start")))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete of a missing session is a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSnapshot(domain.NewState("Start"))))
		require.NoError(t, store.Save(ctx, id2, domain.NewSnapshot(domain.NewState("Start"))))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
