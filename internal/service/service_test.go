package service

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"map_survey_backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type testEnv struct {
	rdb           *redis.Client
	users         *repository.UserRepository
	datasets      *repository.DatasetRepository
	assignments   *repository.AssignmentRepository
	responses     *repository.ResponseRepository
	campaigns     *repository.CampaignRepository
	adjudications *repository.AdjudicationRepository
	registry      *DatasetRegistry
	cache         *QuestionCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})

	datasets := repository.NewDatasetRepository(rdb)
	return &testEnv{
		rdb:           rdb,
		users:         repository.NewUserRepository(rdb),
		datasets:      datasets,
		assignments:   repository.NewAssignmentRepository(rdb),
		responses:     repository.NewResponseRepository(rdb),
		campaigns:     repository.NewCampaignRepository(rdb),
		adjudications: repository.NewAdjudicationRepository(rdb),
		registry:      NewDatasetRegistry(),
		cache:         NewQuestionCache(datasets),
	}
}

func (e *testEnv) addDataset(t *testing.T, ctx context.Context, id, topic string, questions ...model.Question) {
	t.Helper()
	require.NoError(t, e.datasets.Register(ctx, id))
	require.NoError(t, e.datasets.SetMeta(ctx, id, model.DatasetMeta{Label: id, Topic: topic}))
	if len(questions) > 0 {
		require.NoError(t, e.datasets.BulkAddQuestions(ctx, id, questions))
	}
	if topic != "" {
		require.NoError(t, e.campaigns.AddDataset(ctx, topic, id))
	}
	e.registry.Add(id, id)
}

func (e *testEnv) surveyService() *SurveyService {
	return NewSurveyService(e.users, e.datasets, e.assignments, e.responses, e.registry, e.cache)
}

func (e *testEnv) campaignService(gen DatasetGenerator) *CampaignService {
	return NewCampaignService(e.datasets, e.assignments, e.responses, e.campaigns, e.registry, e.cache, gen)
}

func (e *testEnv) adjudicationService() *AdjudicationService {
	return NewAdjudicationService(e.datasets, e.assignments, e.responses, e.campaigns, e.adjudications, e.registry, e.cache)
}

// Collaborator fakes --------------------------------------------------------

type fakeGenerator struct {
	calls   int
	payload *model.GeneratedDataset
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ int) (*model.GeneratedDataset, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeGrader struct {
	calls int
	res   *model.GradeResult
	err   error
}

func (f *fakeGrader) Grade(_ context.Context, _, _ string) (*model.GradeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeComparator struct {
	calls int
	res   *model.CompareResult
	err   error
}

func (f *fakeComparator) Compare(_ context.Context, _, _, _ string) (*model.CompareResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeArchive struct {
	evals         []model.EvalRecord
	disagreements []model.DisagreementRecord
}

func (f *fakeArchive) SaveEvalRecords(records []model.EvalRecord) error {
	f.evals = append(f.evals, records...)
	return nil
}

func (f *fakeArchive) SaveDisagreements(records []model.DisagreementRecord) error {
	f.disagreements = append(f.disagreements, records...)
	return nil
}

func numAccuracy(n float64) model.AccuracyValue {
	return model.AccuracyValue{Number: n, IsNumber: true}
}
