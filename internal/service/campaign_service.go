package service

import (
	"context"
	"fmt"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/util"
	"map_survey_backend/pkg/logger"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// CampaignService drives the next-dataset state machine: topic campaigns hand
// out existing datasets first and fall back to the generator collaborator
// while the quota allows.
type CampaignService struct {
	Datasets    *repository.DatasetRepository
	Assignments *repository.AssignmentRepository
	Responses   *repository.ResponseRepository
	Campaigns   *repository.CampaignRepository
	Registry    *DatasetRegistry
	Cache       *QuestionCache
	Generator   DatasetGenerator
}

func NewCampaignService(
	datasets *repository.DatasetRepository,
	assignments *repository.AssignmentRepository,
	responses *repository.ResponseRepository,
	campaigns *repository.CampaignRepository,
	registry *DatasetRegistry,
	cache *QuestionCache,
	generator DatasetGenerator,
) *CampaignService {
	return &CampaignService{
		Datasets:    datasets,
		Assignments: assignments,
		Responses:   responses,
		Campaigns:   campaigns,
		Registry:    registry,
		Cache:       cache,
		Generator:   generator,
	}
}

// NextDataset picks the dataset a user should work on after finishing
// current. Priority: an assigned-but-unsubmitted dataset in the topic, then
// an understaffed one, then an unassigned calibration dataset, then a newly
// generated one while the campaign quota allows. "" means the campaign is
// exhausted for this user.
func (s *CampaignService) NextDataset(ctx context.Context, pid, current string) (string, error) {
	meta, err := s.Datasets.GetMeta(ctx, current)
	if err != nil {
		return "", err
	}
	if meta.Topic == "" {
		return "", nil
	}
	topic := meta.Topic

	members, err := s.Campaigns.Members(ctx, topic)
	if err != nil {
		return "", err
	}
	sort.Strings(members)

	next, err := s.pickExisting(ctx, pid, current, members)
	if err != nil {
		return "", err
	}
	if next == "" {
		next, err = s.generate(ctx, topic)
		if err != nil {
			return "", err
		}
	}
	if next == "" {
		return "", nil
	}

	if err := s.Assignments.SetAccess(ctx, pid, next, true); err != nil {
		return "", err
	}
	return next, nil
}

func (s *CampaignService) pickExisting(ctx context.Context, pid, current string, members []string) (string, error) {
	// Assigned but never finalized.
	for _, ds := range members {
		if ds == current {
			continue
		}
		assigned, err := s.Assignments.IsAssigned(ctx, ds, pid)
		if err != nil {
			return "", err
		}
		if !assigned {
			continue
		}
		submitted, err := s.Responses.MarkerExists(ctx, pid, ds)
		if err != nil {
			return "", err
		}
		if !submitted {
			return ds, nil
		}
	}

	// Fewer than two annotators and not yet this user's.
	for _, ds := range members {
		if ds == current {
			continue
		}
		count, err := s.Assignments.AssignedCount(ctx, ds)
		if err != nil {
			return "", err
		}
		if count >= 2 {
			continue
		}
		assigned, err := s.Assignments.IsAssigned(ctx, ds, pid)
		if err != nil {
			return "", err
		}
		if !assigned {
			return ds, nil
		}
	}

	// Calibration datasets the user has not taken.
	for _, ds := range members {
		if ds == current || !strings.HasSuffix(ds, "Accuracy") {
			continue
		}
		assigned, err := s.Assignments.IsAssigned(ctx, ds, pid)
		if err != nil {
			return "", err
		}
		if !assigned {
			return ds, nil
		}
	}
	return "", nil
}

// generate asks the collaborator for a fresh dataset and registers it. The
// cursor only advances after the dataset is fully stored.
func (s *CampaignService) generate(ctx context.Context, topic string) (string, error) {
	meta, err := s.Campaigns.GetMeta(ctx, topic)
	if err != nil {
		return "", err
	}
	if meta.NumImages == nil {
		return "", util.ErrCampaignQuotaUnset
	}
	if meta.CurIndex >= *meta.NumImages {
		return "", nil
	}

	payload, err := s.Generator.Generate(ctx, topic, meta.CurIndex)
	if err == util.ErrGeneratorSkipped {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	ds := fmt.Sprintf("%s_%d", topic, meta.CurIndex)
	if err := s.Datasets.BulkAddQuestions(ctx, ds, payload.Entries); err != nil {
		return "", err
	}
	if err := s.Datasets.Register(ctx, ds); err != nil {
		return "", err
	}
	if err := s.Datasets.SetMeta(ctx, ds, payload.Meta); err != nil {
		return "", err
	}
	if err := s.Campaigns.AddDataset(ctx, topic, ds); err != nil {
		return "", err
	}

	meta.CurIndex++
	if err := s.Campaigns.SetMeta(ctx, topic, *meta); err != nil {
		return "", err
	}

	s.Registry.Add(ds, payload.Meta.Label)
	s.Cache.Invalidate(ds)
	logger.Log.Info("dataset generated",
		zap.String("topic", topic), zap.String("dataset", ds),
		zap.Int("questions", len(payload.Entries)))
	return ds, nil
}

// Status aggregates per-user accuracy and per-dataset progress for a topic.
func (s *CampaignService) Status(ctx context.Context, topic string) (*model.CampaignStatus, error) {
	members, err := s.Campaigns.Members(ctx, topic)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, util.ErrTopicNotFound
	}
	sort.Strings(members)

	// Users come from the calibration datasets' assignment sets; everyone in
	// the campaign passed through one.
	pidSet := map[string]bool{}
	for _, ds := range members {
		if !strings.HasSuffix(ds, "Accuracy") {
			continue
		}
		pids, err := s.Assignments.AssignedUsers(ctx, ds)
		if err != nil {
			return nil, err
		}
		for _, pid := range pids {
			pidSet[pid] = true
		}
	}
	pids := make([]string, 0, len(pidSet))
	for pid := range pidSet {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	users := make([]model.UserAccuracy, 0, len(pids))
	for _, pid := range pids {
		var best *float64
		for _, ds := range members {
			if !strings.HasSuffix(ds, "Accuracy") {
				continue
			}
			marker, ok, err := s.Responses.GetMarker(ctx, pid, ds)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if acc := model.ParseAccuracyMarker(marker); acc != nil {
				best = acc
			}
		}
		users = append(users, model.UserAccuracy{PID: pid, Accuracy: best})
	}

	progress := []model.ProgressRow{}
	for _, ds := range members {
		total, err := s.Datasets.QuestionCount(ctx, ds)
		if err != nil {
			return nil, err
		}
		assigned, err := s.Assignments.AssignedUsers(ctx, ds)
		if err != nil {
			return nil, err
		}
		sort.Strings(assigned)

		for _, pid := range assigned {
			responses, err := s.Responses.ListByUserDataset(ctx, pid, ds)
			if err != nil {
				return nil, err
			}
			var lastTS *int64
			for _, resp := range responses {
				ts := resp.OrigTimestamp
				if resp.EditTimestamp > ts {
					ts = resp.EditTimestamp
				}
				if lastTS == nil || ts > *lastTS {
					v := ts
					lastTS = &v
				}
			}
			submitted, err := s.Responses.MarkerExists(ctx, pid, ds)
			if err != nil {
				return nil, err
			}
			progress = append(progress, model.ProgressRow{
				PID:       pid,
				Dataset:   ds,
				Answered:  len(responses),
				Total:     int(total),
				LastTS:    lastTS,
				Submitted: submitted,
			})
		}
	}

	meta, err := s.Campaigns.GetMeta(ctx, topic)
	if err == util.ErrCampaignMetaMissing || err == util.ErrCampaignMetaInvalid {
		meta = &model.CampaignMeta{}
	} else if err != nil {
		return nil, err
	}

	return &model.CampaignStatus{
		Users:    users,
		Datasets: members,
		Progress: progress,
		Meta:     *meta,
	}, nil
}
