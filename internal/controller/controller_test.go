package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/service"
	"map_survey_backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubGrader struct {
	res *model.GradeResult
	err error
}

func (s *stubGrader) Grade(_ context.Context, _, _ string) (*model.GradeResult, error) {
	return s.res, s.err
}

type stubComparator struct{}

func (s *stubComparator) Compare(_ context.Context, _, _, _ string) (*model.CompareResult, error) {
	return &model.CompareResult{Accuracy: model.AccuracyValue{Text: "submitted"}}, nil
}

type stubGenerator struct{}

func (s *stubGenerator) Generate(_ context.Context, _ string, _ int) (*model.GeneratedDataset, error) {
	return nil, nil
}

type testStack struct {
	router      *gin.Engine
	rdb         *redis.Client
	datasets    *repository.DatasetRepository
	responses   *repository.ResponseRepository
	assignments *repository.AssignmentRepository
	registry    *service.DatasetRegistry
}

func newTestStack(t *testing.T, grader service.Grader) *testStack {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})

	users := repository.NewUserRepository(rdb)
	datasets := repository.NewDatasetRepository(rdb)
	assignments := repository.NewAssignmentRepository(rdb)
	responses := repository.NewResponseRepository(rdb)
	campaigns := repository.NewCampaignRepository(rdb)

	registry := service.NewDatasetRegistry()
	cache := service.NewQuestionCache(datasets)

	surveySvc := service.NewSurveyService(users, datasets, assignments, responses, registry, cache)
	campaignSvc := service.NewCampaignService(datasets, assignments, responses, campaigns, registry, cache, &stubGenerator{})
	submissionSvc := service.NewSubmissionService(
		responses, assignments, registry, campaignSvc,
		grader, &stubComparator{}, nil, "", 0.85)

	auth := NewAuthController(surveySvc)
	survey := NewSurveyController(surveySvc)
	submission := NewSubmissionController(submissionSvc)

	r := gin.New()
	r.POST("/login", auth.Login)
	r.GET("/get_questions", survey.NextQuestion)
	r.POST("/submit_question", survey.SubmitQuestion)
	r.GET("/qresponses/:prolificID", survey.Responses)
	r.GET("/dataset_count/:dataset", survey.DatasetCount)
	r.POST("/run-python", submission.RunGrading)

	return &testStack{
		router:      r,
		rdb:         rdb,
		datasets:    datasets,
		responses:   responses,
		assignments: assignments,
		registry:    registry,
	}
}

func (ts *testStack) addDataset(t *testing.T, id string, questions ...model.Question) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, ts.datasets.Register(ctx, id))
	if len(questions) > 0 {
		require.NoError(t, ts.datasets.BulkAddQuestions(ctx, id, questions))
	}
	ts.registry.Add(id, id)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginContract(t *testing.T) {
	ts := newTestStack(t, &stubGrader{})
	ts.addDataset(t, "D1")

	w := doJSON(t, ts.router, http.MethodPost, "/login",
		gin.H{"prolificID": "P1", "datasetID": "D1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		IsNew   bool `json:"isNew"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.IsNew)

	w = doJSON(t, ts.router, http.MethodPost, "/login", gin.H{"prolificID": "P1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IsNew)
}

func TestLoginMissingProlificID(t *testing.T) {
	ts := newTestStack(t, &stubGrader{})

	w := doJSON(t, ts.router, http.MethodPost, "/login", gin.H{"datasetID": "D1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestGetQuestionsContract(t *testing.T) {
	ts := newTestStack(t, &stubGrader{})
	ts.addDataset(t, "D1", model.Question{UID: "q1", Question: "Which way is north?"})

	w := doJSON(t, ts.router, http.MethodGet, "/get_questions?prolificID=P1&dataset=D1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Done          bool            `json:"done"`
		QuestionIndex int             `json:"questionIndex"`
		Question      *model.Question `json:"question"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Done)
	require.NotNil(t, resp.Question)
	assert.Equal(t, "q1", resp.Question.UID)
}

func TestGetQuestionsDone(t *testing.T) {
	ts := newTestStack(t, &stubGrader{})
	ts.addDataset(t, "D1", model.Question{UID: "q1", Question: "a"})

	require.NoError(t, ts.responses.Set(context.Background(), &model.Response{
		UID: "q1", ProlificID: "P1", Dataset: "D1",
	}))

	w := doJSON(t, ts.router, http.MethodGet, "/get_questions?prolificID=P1&dataset=D1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"done":true}`, w.Body.String())
}

func TestGetQuestionsUnknownDataset(t *testing.T) {
	ts := newTestStack(t, &stubGrader{})

	w := doJSON(t, ts.router, http.MethodGet, "/get_questions?prolificID=P1&dataset=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"unknown dataset"}`, w.Body.String())
}

func TestSubmitThenListResponses(t *testing.T) {
	ts := newTestStack(t, &stubGrader{})
	ts.addDataset(t, "D1", model.Question{UID: "q1", Question: "a", Map: "m1.png"})

	w := doJSON(t, ts.router, http.MethodPost, "/submit_question", gin.H{
		"prolificID":    "P1",
		"dataset":       "D1",
		"questionIndex": 0,
		"uid":           "q1",
		"answer":        "north",
		"difficulty":    2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(t, ts.router, http.MethodGet, "/qresponses/P1?dataset=D1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Responses []model.Response `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Responses, 1)
	assert.Equal(t, "north", resp.Responses[0].Answer)
	assert.Equal(t, "m1.png", resp.Responses[0].MapFile)
}

func TestDatasetCount(t *testing.T) {
	ts := newTestStack(t, &stubGrader{})
	ts.addDataset(t, "D1",
		model.Question{UID: "q1", Question: "a"},
		model.Question{UID: "q2", Question: "b"},
	)

	w := doJSON(t, ts.router, http.MethodGet, "/dataset_count/D1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2}`, w.Body.String())
}

func TestRunGradingContract(t *testing.T) {
	grader := &stubGrader{res: &model.GradeResult{Accuracy: model.AccuracyValue{Number: 0.9, IsNumber: true}}}
	ts := newTestStack(t, grader)
	ts.addDataset(t, "CitiesAccuracy")

	w := doJSON(t, ts.router, http.MethodPost, "/run-python",
		gin.H{"prolificID": "P1", "dataset": "CitiesAccuracy"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK     bool   `json:"ok"`
		Output string `json:"output"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.NotEmpty(t, resp.Output)

	// A repeat submission is refused.
	w = doJSON(t, ts.router, http.MethodPost, "/run-python",
		gin.H{"prolificID": "P1", "dataset": "CitiesAccuracy"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"dataset already submitted"}`, w.Body.String())
}
