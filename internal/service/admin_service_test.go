package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"map_survey_backend/internal/model"
	"map_survey_backend/internal/util"
)

func (e *testEnv) adminService(evals EvalReporter) *AdminService {
	campaign := e.campaignService(&fakeGenerator{})
	return NewAdminService(e.users, e.datasets, e.assignments, e.campaigns,
		e.registry, e.cache, campaign, evals)
}

type fakeEvalReporter struct {
	pid     string
	ds      string
	limit   int
	records []model.EvalRecord
	err     error
}

func (f *fakeEvalReporter) ListEvalRecords(pid, ds string, limit int) ([]model.EvalRecord, error) {
	f.pid, f.ds, f.limit = pid, ds, limit
	return f.records, f.err
}

func TestEvalRecordsForwardsFilters(t *testing.T) {
	env := newTestEnv(t)
	reporter := &fakeEvalReporter{records: []model.EvalRecord{
		{ProlificID: "P1", Dataset: "CitiesAccuracy", UID: "q1", LLMEval: "Correct", Accuracy: 0.9},
	}}
	svc := env.adminService(reporter)

	records, err := svc.EvalRecords("P1", "CitiesAccuracy", 50)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "q1", records[0].UID)

	assert.Equal(t, "P1", reporter.pid)
	assert.Equal(t, "CitiesAccuracy", reporter.ds)
	assert.Equal(t, 50, reporter.limit)
}

func TestEvalRecordsArchiveDisabled(t *testing.T) {
	env := newTestEnv(t)
	svc := env.adminService(nil)

	_, err := svc.EvalRecords("", "", 0)
	assert.ErrorIs(t, err, util.ErrArchiveDisabled)
}

func TestCreateDatasetDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDataset(t, ctx, "D1", "")
	svc := env.adminService(nil)

	err := svc.CreateDataset(ctx, &CreateDatasetRequest{ID: "D1"})
	assert.ErrorIs(t, err, util.ErrDatasetExists)
}
