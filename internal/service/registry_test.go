package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"map_survey_backend/internal/model"
)

func TestRegistryLoadSortsIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, id := range []string{"Zebra", "Alpha", "Middle"} {
		require.NoError(t, env.datasets.Register(ctx, id))
	}

	reg := NewDatasetRegistry()
	require.NoError(t, reg.Load(ctx, env.datasets))
	assert.Equal(t, []string{"Alpha", "Middle", "Zebra"}, reg.IDs())
	assert.True(t, reg.Contains("Middle"))
	assert.False(t, reg.Contains("Nope"))
}

func TestRegistryAddRemove(t *testing.T) {
	reg := NewDatasetRegistry()
	reg.Add("D1", "First")
	reg.Add("D1", "First again")
	reg.Add("D2", "")

	assert.Len(t, reg.IDs(), 2)

	infos := reg.Infos()
	labels := map[string]string{}
	for _, info := range infos {
		labels[info.ID] = info.Label
	}
	assert.Equal(t, "First again", labels["D1"])
	assert.Equal(t, "D2", labels["D2"], "label defaults to the id")

	reg.Remove("D1")
	assert.False(t, reg.Contains("D1"))
	assert.Len(t, reg.IDs(), 1)
}

func TestQuestionCacheInvalidate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.datasets.BulkAddQuestions(ctx, "D1", []model.Question{{UID: "q1", Question: "a"}}))

	qs, err := env.cache.Get(ctx, "D1")
	require.NoError(t, err)
	assert.Len(t, qs, 1)

	// The cache hides new questions until invalidated.
	require.NoError(t, env.datasets.AddQuestion(ctx, "D1", model.Question{UID: "q2", Question: "b"}))
	qs, err = env.cache.Get(ctx, "D1")
	require.NoError(t, err)
	assert.Len(t, qs, 1)

	env.cache.Invalidate("D1")
	qs, err = env.cache.Get(ctx, "D1")
	require.NoError(t, err)
	assert.Len(t, qs, 2)
}
