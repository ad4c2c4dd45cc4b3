package service

import (
	"context"
	"fmt"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/util"
	"map_survey_backend/pkg/logger"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdjudicationService runs the reviewer workflow: annotators flag questions,
// a reviewer resolves each flag against both annotators' responses, and a
// resolution may spawn a rephrased copy of the question into a side dataset.
type AdjudicationService struct {
	Datasets      *repository.DatasetRepository
	Assignments   *repository.AssignmentRepository
	Responses     *repository.ResponseRepository
	Campaigns     *repository.CampaignRepository
	Adjudications *repository.AdjudicationRepository
	Registry      *DatasetRegistry
	Cache         *QuestionCache
}

func NewAdjudicationService(
	datasets *repository.DatasetRepository,
	assignments *repository.AssignmentRepository,
	responses *repository.ResponseRepository,
	campaigns *repository.CampaignRepository,
	adjudications *repository.AdjudicationRepository,
	registry *DatasetRegistry,
	cache *QuestionCache,
) *AdjudicationService {
	return &AdjudicationService{
		Datasets:      datasets,
		Assignments:   assignments,
		Responses:     responses,
		Campaigns:     campaigns,
		Adjudications: adjudications,
		Registry:      registry,
		Cache:         cache,
	}
}

type ResolveRequest struct {
	ProlificID  string `json:"prolificID" binding:"required"`
	Dataset     string `json:"dataset" binding:"required"`
	UID         string `json:"uid" binding:"required"`
	Choice      string `json:"choice"`
	Reason      string `json:"reason"`
	Label       string `json:"label"`
	NewQuestion string `json:"newQuestion"`
}

// adjudicable reports whether a dataset participates in the reviewer flow.
// Calibration and training datasets are graded automatically and excluded.
func adjudicable(ds string) bool {
	return !strings.HasSuffix(ds, "Accuracy") && !strings.HasSuffix(ds, "Training")
}

func (s *AdjudicationService) Request(ctx context.Context, pid, ds, uid string) error {
	if !s.Registry.Contains(ds) {
		return util.ErrDatasetNotFound
	}
	if !adjudicable(ds) {
		return util.ErrAdjudicationForbidden
	}
	return s.Adjudications.AddPending(ctx, model.AdjudicationKey{PID: pid, Dataset: ds, UID: uid})
}

func (s *AdjudicationService) Cancel(ctx context.Context, pid, ds, uid string) error {
	return s.Adjudications.RemovePending(ctx, model.AdjudicationKey{PID: pid, Dataset: ds, UID: uid})
}

// Pending returns every open case fleshed out with both annotators' answers.
func (s *AdjudicationService) Pending(ctx context.Context) ([]model.AdjudicationCase, error) {
	keys, err := s.Adjudications.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	cases := make([]model.AdjudicationCase, 0, len(keys))
	for _, key := range keys {
		if !adjudicable(key.Dataset) {
			continue
		}
		c, err := s.buildCase(ctx, key)
		if err != nil {
			return nil, err
		}
		if c != nil {
			cases = append(cases, *c)
		}
	}
	return cases, nil
}

// Past returns resolved cases together with their outcome.
func (s *AdjudicationService) Past(ctx context.Context) ([]model.PastAdjudicationCase, error) {
	keys, err := s.Adjudications.ListPast(ctx)
	if err != nil {
		return nil, err
	}

	cases := make([]model.PastAdjudicationCase, 0, len(keys))
	for _, key := range keys {
		c, err := s.buildCase(ctx, key)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}

		resp, err := s.Responses.Get(ctx, key.PID, key.Dataset, key.UID)
		if err != nil {
			return nil, err
		}
		past := model.PastAdjudicationCase{AdjudicationCase: *c}
		if resp != nil {
			past.Adjudication = resp.Adjudication
			past.AdjudicationReason = resp.AdjudicationReason
		}
		cases = append(cases, past)
	}
	return cases, nil
}

// buildCase assembles the reviewer view of one flag. Cases whose response or
// question vanished are dropped with a warning rather than failing the list.
func (s *AdjudicationService) buildCase(ctx context.Context, key model.AdjudicationKey) (*model.AdjudicationCase, error) {
	resp, err := s.Responses.Get(ctx, key.PID, key.Dataset, key.UID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		logger.Log.Warn("adjudication case without response",
			zap.String("pid", key.PID), zap.String("dataset", key.Dataset), zap.String("uid", key.UID))
		return nil, nil
	}

	q, err := s.Datasets.GetQuestion(ctx, key.Dataset, key.UID)
	if err != nil {
		return nil, err
	}

	c := &model.AdjudicationCase{
		PID:       key.PID,
		Dataset:   key.Dataset,
		UID:       key.UID,
		Question:  resp.Question,
		Answer:    resp.Answer,
		BadReason: resp.BadReason,
	}
	if q != nil {
		c.Label = q.Label
		c.MapFile = q.Map
		if c.Question == "" {
			c.Question = q.Question
		}
	}
	c.AdjudicatorLabel = resp.AdjudicatorLabel

	otherPID, err := s.otherAnnotator(ctx, key.Dataset, key.PID)
	if err != nil {
		return nil, err
	}
	if otherPID != "" {
		c.OtherPID = otherPID
		other, err := s.Responses.Get(ctx, otherPID, key.Dataset, key.UID)
		if err != nil {
			return nil, err
		}
		if other != nil {
			c.OtherAnswer = other.Answer
			c.OtherBadReason = other.BadReason
		}
	}
	return c, nil
}

func (s *AdjudicationService) otherAnnotator(ctx context.Context, ds, pid string) (string, error) {
	assigned, err := s.Assignments.AssignedUsers(ctx, ds)
	if err != nil {
		return "", err
	}
	for _, other := range assigned {
		if other != pid {
			return other, nil
		}
	}
	return "", nil
}

// Resolve applies the reviewer's verdict to both annotators' responses and
// moves the case from the pending to the past set. Choice "1" sides with the
// flagging annotator, "2" with the other one; anything else rejects the
// question for both.
func (s *AdjudicationService) Resolve(ctx context.Context, req *ResolveRequest) error {
	if !s.Registry.Contains(req.Dataset) {
		return util.ErrDatasetNotFound
	}
	if !adjudicable(req.Dataset) {
		return util.ErrAdjudicationForbidden
	}

	var mine, theirs string
	switch req.Choice {
	case "1":
		mine, theirs = model.AdjudicationCorrect, model.AdjudicationIncorrect
	case "2":
		mine, theirs = model.AdjudicationIncorrect, model.AdjudicationCorrect
	default:
		mine, theirs = model.AdjudicationRejected, model.AdjudicationRejected
	}

	if err := s.applyVerdict(ctx, req.ProlificID, req, mine); err != nil {
		return err
	}

	otherPID, err := s.otherAnnotator(ctx, req.Dataset, req.ProlificID)
	if err != nil {
		return err
	}
	if otherPID != "" {
		if err := s.applyVerdict(ctx, otherPID, req, theirs); err != nil {
			return err
		}
	}

	key := model.AdjudicationKey{PID: req.ProlificID, Dataset: req.Dataset, UID: req.UID}
	if err := s.Adjudications.AddPast(ctx, key); err != nil {
		return err
	}
	if err := s.Adjudications.RemovePending(ctx, key); err != nil {
		return err
	}

	if newQ := strings.TrimSpace(req.NewQuestion); newQ != "" {
		if err := s.spawnRephrased(ctx, req.Dataset, req.UID, newQ); err != nil {
			// The verdict is already recorded; a failed rephrase only loses
			// the side dataset entry.
			logger.Log.Error("rephrased question not stored",
				zap.String("dataset", req.Dataset), zap.String("uid", req.UID), zap.Error(err))
		}
	}
	return nil
}

func (s *AdjudicationService) applyVerdict(ctx context.Context, pid string, req *ResolveRequest, outcome string) error {
	resp, err := s.Responses.Get(ctx, pid, req.Dataset, req.UID)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	resp.Adjudication = outcome
	resp.AdjudicationReason = req.Reason
	if req.Label != "" {
		resp.AdjudicatorLabel = req.Label
	}
	return s.Responses.Set(ctx, resp)
}

// spawnRephrased copies a flagged question, with the reviewer's wording, into
// the topic's lazily created rephrase dataset.
func (s *AdjudicationService) spawnRephrased(ctx context.Context, ds, uid, text string) error {
	meta, err := s.Datasets.GetMeta(ctx, ds)
	if err != nil {
		return err
	}
	topic := meta.Topic
	if topic == "" {
		topic = "General"
	}

	prefix := topic + "QuestionsRephrased"
	idx, err := s.Campaigns.NextRephraseIndex(ctx, prefix)
	if err != nil {
		return err
	}
	newDS := fmt.Sprintf("%s_%d", prefix, idx)
	label := fmt.Sprintf("%s rephrased questions %d", topic, idx)

	if err := s.Datasets.Register(ctx, newDS); err != nil {
		return err
	}
	if err := s.Datasets.SetMeta(ctx, newDS, model.DatasetMeta{Label: label, Topic: topic}); err != nil {
		return err
	}

	var mapFile string
	if orig, err := s.Datasets.GetQuestion(ctx, ds, uid); err != nil {
		return err
	} else if orig != nil {
		mapFile = orig.Map
	}

	q := model.Question{
		UID:           uuid.NewString(),
		Question:      text,
		Map:           mapFile,
		Locations:     []string{},
		SourceDataset: ds,
		SourceUID:     uid,
	}
	if err := s.Datasets.AddQuestion(ctx, newDS, q); err != nil {
		return err
	}

	s.Registry.Add(newDS, label)
	s.Cache.Invalidate(newDS)
	logger.Log.Info("rephrased question stored",
		zap.String("source", ds+":"+uid), zap.String("dataset", newDS))
	return nil
}
