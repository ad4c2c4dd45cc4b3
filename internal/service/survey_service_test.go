package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"map_survey_backend/internal/model"
	"map_survey_backend/internal/util"
)

func TestLoginAssignsLinkedDataset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "")
	svc := env.surveyService()

	isNew, err := svc.Login(ctx, "P1", "D1")
	require.NoError(t, err)
	assert.True(t, isNew)

	assigned, err := env.assignments.IsAssigned(ctx, "D1", "P1")
	require.NoError(t, err)
	assert.True(t, assigned)

	isNew, err = svc.Login(ctx, "P1", "")
	require.NoError(t, err)
	assert.False(t, isNew, "second login is not new")
}

func TestLoginIgnoresUnknownDataset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.surveyService()

	_, err := svc.Login(ctx, "P1", "nope")
	require.NoError(t, err)

	datasets, err := env.assignments.UserDatasets(ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, datasets)
}

func TestNextQuestionSkipsAnswered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "",
		model.Question{UID: "q1", Question: "a"},
		model.Question{UID: "q2", Question: "b"},
		model.Question{UID: "q3", Question: "c"},
	)
	svc := env.surveyService()

	// Answer everything except q2.
	for _, uid := range []string{"q1", "q3"} {
		require.NoError(t, env.responses.Set(ctx, &model.Response{
			UID: uid, ProlificID: "P1", Dataset: "D1", Answer: "x",
		}))
	}

	_, question, done, err := svc.NextQuestion(ctx, "P1", "D1")
	require.NoError(t, err)
	assert.False(t, done)
	require.NotNil(t, question)
	assert.Equal(t, "q2", question.UID)
}

func TestNextQuestionDone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "", model.Question{UID: "q1", Question: "a"})
	svc := env.surveyService()

	require.NoError(t, env.responses.Set(ctx, &model.Response{
		UID: "q1", ProlificID: "P1", Dataset: "D1", Answer: "x",
	}))

	_, question, done, err := svc.NextQuestion(ctx, "P1", "D1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Nil(t, question)
}

func TestNextQuestionUnknownDataset(t *testing.T) {
	env := newTestEnv(t)
	svc := env.surveyService()

	_, _, _, err := svc.NextQuestion(context.Background(), "P1", "nope")
	assert.ErrorIs(t, err, util.ErrDatasetNotFound)
}

func TestSubmitAnswerResolvesUIDFromIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "", model.Question{UID: "q1", Question: "a"})
	svc := env.surveyService()

	err := svc.SubmitAnswer(ctx, &SubmitQuestionRequest{
		ProlificID:    "P1",
		Dataset:       "D1",
		QuestionIndex: 0,
		Answer:        "two bridges",
	})
	require.NoError(t, err)

	got, err := env.responses.Get(ctx, "P1", "D1", "q1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "two bridges", got.Answer)
	assert.NotZero(t, got.OrigTimestamp, "server sets the creation timestamp")

	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Contains(t, users, "P1")
}

func TestSubmitAnswerBadIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "", model.Question{UID: "q1", Question: "a"})
	svc := env.surveyService()

	err := svc.SubmitAnswer(ctx, &SubmitQuestionRequest{
		ProlificID:    "P1",
		Dataset:       "D1",
		QuestionIndex: 7,
	})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestEditResponseOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "", model.Question{UID: "q1", Question: "a"})
	svc := env.surveyService()

	require.NoError(t, env.responses.Set(ctx, &model.Response{
		UID: "q1", ProlificID: "P1", Dataset: "D1", Answer: "old", LLMEval: "Incorrect",
	}))

	err := svc.EditResponse(ctx, "P2", &EditResponseRequest{Dataset: "D1", UID: "q1", Answer: "hijack"})
	assert.ErrorIs(t, err, util.ErrResponseNotFound, "P2 has no such response")

	err = svc.EditResponse(ctx, "P1", &EditResponseRequest{Dataset: "D1", UID: "q1", Answer: "new", Difficulty: 4})
	require.NoError(t, err)

	got, err := env.responses.Get(ctx, "P1", "D1", "q1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Answer)
	assert.Equal(t, 4, got.Difficulty)
	assert.Equal(t, "Incorrect", got.LLMEval, "evaluation fields survive an edit")
	assert.NotZero(t, got.EditTimestamp)
}

func TestEditResponseMissing(t *testing.T) {
	env := newTestEnv(t)
	svc := env.surveyService()

	err := svc.EditResponse(context.Background(), "P1", &EditResponseRequest{Dataset: "D1", UID: "q9"})
	assert.ErrorIs(t, err, util.ErrResponseNotFound)
}

func TestListResponsesAttachesMapFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "", model.Question{UID: "q1", Question: "a", Map: "m1.png"})
	svc := env.surveyService()

	require.NoError(t, env.responses.Set(ctx, &model.Response{
		UID: "q1", ProlificID: "P1", Dataset: "D1", Answer: "x",
	}))

	got, err := svc.ListResponses(ctx, "P1", "D1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1.png", got[0].MapFile)
}

func TestUserDatasetsSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "")
	env.addDataset(t, ctx, "D2", "")
	svc := env.surveyService()

	require.NoError(t, env.assignments.SetAccess(ctx, "P1", "D1", true))
	require.NoError(t, env.assignments.SetAccess(ctx, "P1", "D2", true))
	require.NoError(t, env.responses.Set(ctx, &model.Response{UID: "q1", ProlificID: "P1", Dataset: "D1"}))
	require.NoError(t, env.responses.SetMarker(ctx, "P1", "D1", "0.9"))

	summaries, err := svc.UserDatasetsSummary(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]model.DatasetSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.True(t, byID["D1"].Submitted)
	require.NotNil(t, byID["D1"].Accuracy)
	assert.InDelta(t, 0.9, *byID["D1"].Accuracy, 1e-9)
	assert.True(t, byID["D1"].HasResponses)

	assert.False(t, byID["D2"].Submitted)
	assert.Nil(t, byID["D2"].Accuracy)
	assert.False(t, byID["D2"].HasResponses)
}
