package service

import (
	"context"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/util"
	"map_survey_backend/pkg/logger"
	"sort"

	"go.uber.org/zap"
)

// EvalReporter reads graded responses back out of the relational archive.
type EvalReporter interface {
	ListEvalRecords(pid, ds string, limit int) ([]model.EvalRecord, error)
}

// AdminService backs the operator endpoints: catalog management, manual
// assignment and campaign reporting. Evals is nil when the archive is
// disabled.
type AdminService struct {
	Users       *repository.UserRepository
	Datasets    *repository.DatasetRepository
	Assignments *repository.AssignmentRepository
	Campaigns   *repository.CampaignRepository
	Registry    *DatasetRegistry
	Cache       *QuestionCache
	Campaign    *CampaignService
	Evals       EvalReporter
}

func NewAdminService(
	users *repository.UserRepository,
	datasets *repository.DatasetRepository,
	assignments *repository.AssignmentRepository,
	campaigns *repository.CampaignRepository,
	registry *DatasetRegistry,
	cache *QuestionCache,
	campaign *CampaignService,
	evals EvalReporter,
) *AdminService {
	return &AdminService{
		Users:       users,
		Datasets:    datasets,
		Assignments: assignments,
		Campaigns:   campaigns,
		Registry:    registry,
		Cache:       cache,
		Campaign:    campaign,
		Evals:       evals,
	}
}

type CreateDatasetRequest struct {
	ID          string           `json:"id" binding:"required"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Topic       string           `json:"topic"`
	Questions   []model.Question `json:"questions"`
}

type AssignRequest struct {
	ProlificID string `json:"prolificID" binding:"required"`
	Dataset    string `json:"dataset" binding:"required"`
	Allow      *bool  `json:"allow"`
}

func (s *AdminService) ListUsers(ctx context.Context) ([]string, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(users)
	return users, nil
}

func (s *AdminService) ListDatasets() []model.DatasetInfo {
	return s.Registry.Infos()
}

// CreateDataset registers a dataset with optional metadata and initial
// questions.
func (s *AdminService) CreateDataset(ctx context.Context, req *CreateDatasetRequest) error {
	if s.Registry.Contains(req.ID) {
		return util.ErrDatasetExists
	}

	if err := s.Datasets.Register(ctx, req.ID); err != nil {
		return err
	}

	label := req.Label
	if label == "" {
		label = req.ID
	}
	meta := model.DatasetMeta{Label: label, Description: req.Description, Topic: req.Topic}
	if err := s.Datasets.SetMeta(ctx, req.ID, meta); err != nil {
		return err
	}

	if len(req.Questions) > 0 {
		if err := s.Datasets.BulkAddQuestions(ctx, req.ID, req.Questions); err != nil {
			return err
		}
	}

	if req.Topic != "" {
		if err := s.Campaigns.AddDataset(ctx, req.Topic, req.ID); err != nil {
			return err
		}
		if err := s.Campaigns.EnsureMeta(ctx, req.Topic); err != nil {
			return err
		}
	}

	s.Registry.Add(req.ID, label)
	s.Cache.Invalidate(req.ID)
	logger.Log.Info("dataset created",
		zap.String("dataset", req.ID), zap.Int("questions", len(req.Questions)))
	return nil
}

// DeleteDataset removes a dataset from the catalog and its campaign. Stored
// questions and responses remain for audit.
func (s *AdminService) DeleteDataset(ctx context.Context, id string) error {
	if !s.Registry.Contains(id) {
		return util.ErrDatasetNotFound
	}

	meta, err := s.Datasets.GetMeta(ctx, id)
	if err != nil {
		return err
	}
	if meta.Topic != "" {
		if err := s.Campaigns.RemoveDataset(ctx, meta.Topic, id); err != nil {
			return err
		}
	}
	if err := s.Datasets.Unregister(ctx, id); err != nil {
		return err
	}

	s.Registry.Remove(id)
	s.Cache.Invalidate(id)
	logger.Log.Info("dataset removed from catalog", zap.String("dataset", id))
	return nil
}

// SetDatasetMeta rewrites the metadata and keeps campaign membership in sync
// with the topic field.
func (s *AdminService) SetDatasetMeta(ctx context.Context, id string, meta model.DatasetMeta) error {
	if !s.Registry.Contains(id) {
		return util.ErrDatasetNotFound
	}

	old, err := s.Datasets.GetMeta(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Datasets.SetMeta(ctx, id, meta); err != nil {
		return err
	}

	if old.Topic != meta.Topic {
		if old.Topic != "" {
			if err := s.Campaigns.RemoveDataset(ctx, old.Topic, id); err != nil {
				return err
			}
		}
		if meta.Topic != "" {
			if err := s.Campaigns.AddDataset(ctx, meta.Topic, id); err != nil {
				return err
			}
			if err := s.Campaigns.EnsureMeta(ctx, meta.Topic); err != nil {
				return err
			}
		}
	}

	label := meta.Label
	if label == "" {
		label = id
	}
	s.Registry.Add(id, label)
	return nil
}

// Assign grants or revokes a user's access to a dataset. Allow defaults to
// grant.
func (s *AdminService) Assign(ctx context.Context, req *AssignRequest) error {
	if !s.Registry.Contains(req.Dataset) {
		return util.ErrDatasetNotFound
	}
	allow := true
	if req.Allow != nil {
		allow = *req.Allow
	}
	return s.Assignments.SetAccess(ctx, req.ProlificID, req.Dataset, allow)
}

func (s *AdminService) UserDatasets(ctx context.Context, pid string) ([]string, error) {
	ids, err := s.Assignments.UserDatasets(ctx, pid)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *AdminService) CampaignStatus(ctx context.Context, topic string) (*model.CampaignStatus, error) {
	return s.Campaign.Status(ctx, topic)
}

// EvalRecords reports archived grading results, optionally filtered by
// participant and dataset.
func (s *AdminService) EvalRecords(pid, ds string, limit int) ([]model.EvalRecord, error) {
	if s.Evals == nil {
		return nil, util.ErrArchiveDisabled
	}
	return s.Evals.ListEvalRecords(pid, ds, limit)
}
