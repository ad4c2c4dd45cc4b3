package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"map_survey_backend/internal/model"
	"map_survey_backend/internal/util"
)

func seedAdjudicationPair(t *testing.T, env *testEnv, ctx context.Context) {
	t.Helper()
	env.addDataset(t, ctx, "Cities_0", "Cities",
		model.Question{UID: "q1", Question: "Which bridge is longest?", Label: "Harbor Bridge", Map: "m1.png"})

	require.NoError(t, env.assignments.SetAccess(ctx, "P1", "Cities_0", true))
	require.NoError(t, env.assignments.SetAccess(ctx, "P2", "Cities_0", true))

	require.NoError(t, env.responses.Set(ctx, &model.Response{
		UID: "q1", ProlificID: "P1", Dataset: "Cities_0", Answer: "Harbor Bridge",
		BadQuestion: true, BadReason: "ambiguous",
	}))
	require.NoError(t, env.responses.Set(ctx, &model.Response{
		UID: "q1", ProlificID: "P2", Dataset: "Cities_0", Answer: "West Bridge",
	}))
}

func TestRequestRefusesGradedDatasets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "CitiesAccuracy", "")
	svc := env.adjudicationService()

	err := svc.Request(ctx, "P1", "CitiesAccuracy", "q1")
	assert.ErrorIs(t, err, util.ErrAdjudicationForbidden)
}

func TestRequestAndPendingCase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdjudicationPair(t, env, ctx)
	svc := env.adjudicationService()

	require.NoError(t, svc.Request(ctx, "P1", "Cities_0", "q1"))

	cases, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	c := cases[0]
	assert.Equal(t, "P1", c.PID)
	assert.Equal(t, "P2", c.OtherPID)
	assert.Equal(t, "Harbor Bridge", c.Answer)
	assert.Equal(t, "West Bridge", c.OtherAnswer)
	assert.Equal(t, "Harbor Bridge", c.Label)
	assert.Equal(t, "m1.png", c.MapFile)
	assert.Equal(t, "ambiguous", c.BadReason)
}

func TestCancelRemovesPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdjudicationPair(t, env, ctx)
	svc := env.adjudicationService()

	require.NoError(t, svc.Request(ctx, "P1", "Cities_0", "q1"))
	require.NoError(t, svc.Cancel(ctx, "P1", "Cities_0", "q1"))

	cases, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestResolveSidesWithOtherAnnotator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdjudicationPair(t, env, ctx)
	svc := env.adjudicationService()

	require.NoError(t, svc.Request(ctx, "P1", "Cities_0", "q1"))
	require.NoError(t, svc.Resolve(ctx, &ResolveRequest{
		ProlificID: "P1",
		Dataset:    "Cities_0",
		UID:        "q1",
		Choice:     "2",
		Reason:     "second answer matches the map",
	}))

	resp1, err := env.responses.Get(ctx, "P1", "Cities_0", "q1")
	require.NoError(t, err)
	assert.Equal(t, model.AdjudicationIncorrect, resp1.Adjudication)
	assert.Equal(t, "second answer matches the map", resp1.AdjudicationReason)

	resp2, err := env.responses.Get(ctx, "P2", "Cities_0", "q1")
	require.NoError(t, err)
	assert.Equal(t, model.AdjudicationCorrect, resp2.Adjudication)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	past, err := svc.Past(ctx)
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, model.AdjudicationIncorrect, past[0].Adjudication)
}

func TestResolveRejectsBoth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdjudicationPair(t, env, ctx)
	svc := env.adjudicationService()

	require.NoError(t, svc.Request(ctx, "P1", "Cities_0", "q1"))
	require.NoError(t, svc.Resolve(ctx, &ResolveRequest{
		ProlificID: "P1", Dataset: "Cities_0", UID: "q1", Choice: "reject",
	}))

	for _, pid := range []string{"P1", "P2"} {
		resp, err := env.responses.Get(ctx, pid, "Cities_0", "q1")
		require.NoError(t, err)
		assert.Equal(t, model.AdjudicationRejected, resp.Adjudication, pid)
	}
}

func TestResolveSpawnsRephrasedQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdjudicationPair(t, env, ctx)
	svc := env.adjudicationService()

	require.NoError(t, svc.Request(ctx, "P1", "Cities_0", "q1"))
	require.NoError(t, svc.Resolve(ctx, &ResolveRequest{
		ProlificID:  "P1",
		Dataset:     "Cities_0",
		UID:         "q1",
		Choice:      "1",
		NewQuestion: "Which bridge spans the harbor?",
	}))

	newDS := "CitiesQuestionsRephrased_1"
	assert.True(t, env.registry.Contains(newDS))

	questions, err := env.datasets.GetQuestions(ctx, newDS)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Which bridge spans the harbor?", questions[0].Question)
	assert.Equal(t, "Cities_0", questions[0].SourceDataset)
	assert.Equal(t, "q1", questions[0].SourceUID)
	assert.Equal(t, "m1.png", questions[0].Map)
	assert.NotEmpty(t, questions[0].UID)

	meta, err := env.datasets.GetMeta(ctx, newDS)
	require.NoError(t, err)
	assert.Equal(t, "Cities", meta.Topic)
}

func TestResolveAppliesAdjudicatorLabel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdjudicationPair(t, env, ctx)
	svc := env.adjudicationService()

	require.NoError(t, svc.Request(ctx, "P1", "Cities_0", "q1"))
	require.NoError(t, svc.Resolve(ctx, &ResolveRequest{
		ProlificID: "P1", Dataset: "Cities_0", UID: "q1", Choice: "1", Label: "East Bridge",
	}))

	for _, pid := range []string{"P1", "P2"} {
		resp, err := env.responses.Get(ctx, pid, "Cities_0", "q1")
		require.NoError(t, err)
		assert.Equal(t, "East Bridge", resp.AdjudicatorLabel, pid)
	}
}
