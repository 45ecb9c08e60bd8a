package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/survey/pkg/adapters/memory"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	s := domain.NewState("Q1")
	s.Answers.Choices["Q1"] = []string{"Yes"}
	snap := domain.NewSnapshot(s)
	require.NoError(t, store.Save(ctx, "s1", snap))

	snap.Answers.Choices["Q1"][0] = "No"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Yes"}, loaded.Answers.Choices["Q1"])

	loaded.Answers.Choices["Q1"][0] = "No"
	again, _ := store.Load(ctx, "s1")
	assert.Equal(t, []string{"Yes"}, again.Answers.Choices["Q1"])
}
