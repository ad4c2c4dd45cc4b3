package service

import (
	"context"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/util"
	"time"
)

// SurveyService covers the annotator-facing flow: login, question serving
// and answer collection.
type SurveyService struct {
	Users       *repository.UserRepository
	Datasets    *repository.DatasetRepository
	Assignments *repository.AssignmentRepository
	Responses   *repository.ResponseRepository
	Registry    *DatasetRegistry
	Cache       *QuestionCache
}

func NewSurveyService(
	users *repository.UserRepository,
	datasets *repository.DatasetRepository,
	assignments *repository.AssignmentRepository,
	responses *repository.ResponseRepository,
	registry *DatasetRegistry,
	cache *QuestionCache,
) *SurveyService {
	return &SurveyService{
		Users:       users,
		Datasets:    datasets,
		Assignments: assignments,
		Responses:   responses,
		Registry:    registry,
		Cache:       cache,
	}
}

type SubmitQuestionRequest struct {
	ProlificID    string `json:"prolificID" binding:"required"`
	Dataset       string `json:"dataset" binding:"required"`
	QuestionIndex int    `json:"questionIndex"`
	UID           string `json:"uid"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Difficulty    int    `json:"difficulty"`
	BadQuestion   bool   `json:"badQuestion"`
	BadReason     string `json:"badReason"`
	Discard       bool   `json:"discard"`
	StartTime     int64  `json:"startTime"`
	StopTime      int64  `json:"stopTime"`
}

type EditResponseRequest struct {
	Dataset     string `json:"dataset" binding:"required"`
	UID         string `json:"uid" binding:"required"`
	Answer      string `json:"answer"`
	Difficulty  int    `json:"difficulty"`
	BadQuestion bool   `json:"badQuestion"`
	BadReason   string `json:"badReason"`
	Discard     bool   `json:"discard"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// Login registers the participant and optionally grants access to the
// dataset the survey link carried.
func (s *SurveyService) Login(ctx context.Context, pid, datasetID string) (bool, error) {
	isNew, err := s.Users.EnsureUser(ctx, pid)
	if err != nil {
		return false, err
	}
	if datasetID != "" && s.Registry.Contains(datasetID) {
		if err := s.Assignments.SetAccess(ctx, pid, datasetID, true); err != nil {
			return false, err
		}
	}
	return isNew, nil
}

// NextQuestion returns the first question in the dataset the user has not
// answered yet. done reports that every question has a stored response.
func (s *SurveyService) NextQuestion(ctx context.Context, pid, ds string) (int, *model.Question, bool, error) {
	if !s.Registry.Contains(ds) {
		return 0, nil, false, util.ErrDatasetNotFound
	}

	questions, err := s.Cache.Get(ctx, ds)
	if err != nil {
		return 0, nil, false, err
	}

	for i := range questions {
		answered, err := s.Responses.Exists(ctx, pid, ds, questions[i].UID)
		if err != nil {
			return 0, nil, false, err
		}
		if !answered {
			return i, &questions[i], false, nil
		}
	}
	return 0, nil, true, nil
}

// SubmitAnswer upserts the user's response. The question uid is resolved from
// the dataset index when the client did not send one.
func (s *SurveyService) SubmitAnswer(ctx context.Context, req *SubmitQuestionRequest) error {
	if !s.Registry.Contains(req.Dataset) {
		return util.ErrDatasetNotFound
	}
	if _, err := s.Users.EnsureUser(ctx, req.ProlificID); err != nil {
		return err
	}

	uid := req.UID
	if uid == "" {
		questions, err := s.Cache.Get(ctx, req.Dataset)
		if err != nil {
			return err
		}
		if req.QuestionIndex < 0 || req.QuestionIndex >= len(questions) {
			return util.ErrQuestionNotFound
		}
		uid = questions[req.QuestionIndex].UID
	}

	resp := &model.Response{
		UID:           uid,
		ProlificID:    req.ProlificID,
		Dataset:       req.Dataset,
		QuestionIndex: req.QuestionIndex,
		Question:      req.Question,
		Answer:        req.Answer,
		Difficulty:    req.Difficulty,
		BadQuestion:   req.BadQuestion,
		BadReason:     req.BadReason,
		Discard:       req.Discard,
		StartTime:     req.StartTime,
		StopTime:      req.StopTime,
		OrigTimestamp: nowMillis(),
	}
	return s.Responses.Set(ctx, resp)
}

// EditResponse rewrites answer fields of an existing response. Only the owner
// may edit; grading and adjudication fields are preserved.
func (s *SurveyService) EditResponse(ctx context.Context, pid string, req *EditResponseRequest) error {
	resp, err := s.Responses.Get(ctx, pid, req.Dataset, req.UID)
	if err != nil {
		return err
	}
	if resp == nil {
		return util.ErrResponseNotFound
	}
	if resp.ProlificID != pid {
		return util.ErrNotYourResponse
	}

	resp.Answer = req.Answer
	resp.Difficulty = req.Difficulty
	resp.BadQuestion = req.BadQuestion
	resp.BadReason = req.BadReason
	resp.Discard = req.Discard
	resp.EditTimestamp = nowMillis()
	return s.Responses.Set(ctx, resp)
}

// ListResponses returns all of a user's answers in a dataset, with the map
// image attached from the question record.
func (s *SurveyService) ListResponses(ctx context.Context, pid, ds string) ([]model.Response, error) {
	if !s.Registry.Contains(ds) {
		return nil, util.ErrDatasetNotFound
	}

	responses, err := s.Responses.ListByUserDataset(ctx, pid, ds)
	if err != nil {
		return nil, err
	}

	questions, err := s.Cache.Get(ctx, ds)
	if err != nil {
		return nil, err
	}
	maps := make(map[string]string, len(questions))
	for _, q := range questions {
		maps[q.UID] = q.Map
	}
	for i := range responses {
		responses[i].MapFile = maps[responses[i].UID]
	}
	return responses, nil
}

func (s *SurveyService) QuestionByUID(ctx context.Context, ds, uid string) (*model.Question, error) {
	if !s.Registry.Contains(ds) {
		return nil, util.ErrDatasetNotFound
	}
	q, err := s.Datasets.GetQuestion(ctx, ds, uid)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, util.ErrQuestionNotFound
	}
	return q, nil
}

func (s *SurveyService) QuestionCount(ctx context.Context, ds string) (int64, error) {
	if !s.Registry.Contains(ds) {
		return 0, util.ErrDatasetNotFound
	}
	return s.Datasets.QuestionCount(ctx, ds)
}

// UserDatasets lists the datasets assigned to a user, with label and topic
// resolved from metadata.
func (s *SurveyService) UserDatasets(ctx context.Context, pid string) ([]model.UserDataset, error) {
	ids, err := s.Assignments.UserDatasets(ctx, pid)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserDataset, 0, len(ids))
	for _, id := range ids {
		if !s.Registry.Contains(id) {
			continue
		}
		meta, err := s.Datasets.GetMeta(ctx, id)
		if err != nil {
			return nil, err
		}
		label := meta.Label
		if label == "" {
			label = id
		}
		out = append(out, model.UserDataset{ID: id, Label: label, Topic: meta.Topic})
	}
	return out, nil
}

// UserDatasetsSummary adds submission state and any stored accuracy to the
// user's dataset list.
func (s *SurveyService) UserDatasetsSummary(ctx context.Context, pid string) ([]model.DatasetSummary, error) {
	ids, err := s.Assignments.UserDatasets(ctx, pid)
	if err != nil {
		return nil, err
	}

	withResponses, err := s.Responses.DatasetsWithResponses(ctx, pid)
	if err != nil {
		return nil, err
	}

	out := make([]model.DatasetSummary, 0, len(ids))
	for _, id := range ids {
		marker, submitted, err := s.Responses.GetMarker(ctx, pid, id)
		if err != nil {
			return nil, err
		}
		out = append(out, model.DatasetSummary{
			ID:           id,
			Submitted:    submitted,
			Accuracy:     model.ParseAccuracyMarker(marker),
			HasResponses: withResponses[id],
		})
	}
	return out, nil
}

// SubmissionMarker reports whether a user finalized a dataset and the stored
// marker value.
func (s *SurveyService) SubmissionMarker(ctx context.Context, pid, ds string) (string, bool, error) {
	return s.Responses.GetMarker(ctx, pid, ds)
}
