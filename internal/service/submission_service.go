package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/util"
	"map_survey_backend/pkg/logger"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ArchiveStore mirrors grading artifacts into the relational archive. Nil-safe
// through SubmissionService: archiving is optional and never blocks grading.
type ArchiveStore interface {
	SaveEvalRecords(records []model.EvalRecord) error
	SaveDisagreements(records []model.DisagreementRecord) error
}

// SubmissionService finalizes datasets: it runs the grader or the pairwise
// comparator, patches evaluation results onto stored responses and writes the
// submission marker. The marker is only written after every collaborator and
// store step succeeded, so a failed submission can be retried.
type SubmissionService struct {
	Responses   *repository.ResponseRepository
	Assignments *repository.AssignmentRepository
	Registry    *DatasetRegistry
	Campaigns   *CampaignService
	Grader      Grader
	Comparator  Comparator
	Archive     ArchiveStore
	EvalDir     string

	mu        sync.RWMutex
	threshold float64
}

func NewSubmissionService(
	responses *repository.ResponseRepository,
	assignments *repository.AssignmentRepository,
	registry *DatasetRegistry,
	campaigns *CampaignService,
	grader Grader,
	comparator Comparator,
	archive ArchiveStore,
	evalDir string,
	threshold float64,
) *SubmissionService {
	return &SubmissionService{
		Responses:   responses,
		Assignments: assignments,
		Registry:    registry,
		Campaigns:   campaigns,
		Grader:      grader,
		Comparator:  comparator,
		Archive:     archive,
		EvalDir:     evalDir,
		threshold:   threshold,
	}
}

// SetThreshold swaps the pass threshold, used by config hot reload.
func (s *SubmissionService) SetThreshold(t float64) {
	s.mu.Lock()
	s.threshold = t
	s.mu.Unlock()
}

func (s *SubmissionService) Threshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

func isGradedDataset(ds string) bool {
	return strings.HasSuffix(ds, "Accuracy") || strings.HasSuffix(ds, "Training")
}

// Submit finalizes a dataset for a user and returns the message shown to
// them. A second call for the same (user, dataset) fails with
// ErrAlreadySubmitted before any collaborator runs.
func (s *SubmissionService) Submit(ctx context.Context, pid, ds string) (string, error) {
	if !s.Registry.Contains(ds) {
		return "", util.ErrDatasetNotFound
	}

	submitted, err := s.Responses.MarkerExists(ctx, pid, ds)
	if err != nil {
		return "", err
	}
	if submitted {
		return "", util.ErrAlreadySubmitted
	}

	if isGradedDataset(ds) {
		return s.submitGraded(ctx, pid, ds)
	}
	return s.submitPaired(ctx, pid, ds)
}

// submitGraded handles calibration and training datasets: the grader scores
// the user directly and the outcome decides whether they continue.
func (s *SubmissionService) submitGraded(ctx context.Context, pid, ds string) (string, error) {
	res, err := s.Grader.Grade(ctx, pid, ds)
	if err != nil {
		return "", fmt.Errorf("grading failed: %w", err)
	}

	if res.EvalFile != "" {
		if err := s.applyEvalFile(ctx, pid, ds, res); err != nil {
			return "", fmt.Errorf("database update failed: %w", err)
		}
	}

	output, err := s.gradedOutput(ctx, pid, ds, res.Accuracy)
	if err != nil {
		return "", err
	}

	if err := s.Responses.SetMarker(ctx, pid, ds, res.Accuracy.Marker()); err != nil {
		return "", err
	}
	return output, nil
}

func (s *SubmissionService) gradedOutput(ctx context.Context, pid, ds string, acc model.AccuracyValue) (string, error) {
	if !acc.IsNumber {
		return "Thank you for your submission.", nil
	}

	pct := acc.Number * 100
	training := strings.HasSuffix(ds, "Training")
	if !training && acc.Number < s.Threshold() {
		return fmt.Sprintf(
			"You scored %.1f%% on this dataset, which is below the required accuracy. "+
				"Thank you for your time; your participation ends here.", pct), nil
	}

	next, err := s.Campaigns.NextDataset(ctx, pid, ds)
	if err != nil {
		return "", err
	}
	if next == "" {
		return fmt.Sprintf("You scored %.1f%%. There are no further datasets available right now.", pct), nil
	}
	if training {
		return fmt.Sprintf("You scored %.1f%% on the training dataset. A new dataset has been assigned to you.", pct), nil
	}
	return fmt.Sprintf("Congratulations, you scored %.1f%%! A new dataset has been assigned to you.", pct), nil
}

// submitPaired handles regular annotation datasets. Once both assigned
// annotators have material, the comparator scores their agreement and both
// get the accuracy marker; otherwise this submission is just recorded.
func (s *SubmissionService) submitPaired(ctx context.Context, pid, ds string) (string, error) {
	assigned, err := s.Assignments.AssignedUsers(ctx, ds)
	if err != nil {
		return "", err
	}
	sort.Strings(assigned)

	otherSubmitted := false
	for _, other := range assigned {
		if other == pid {
			continue
		}
		ok, err := s.Responses.MarkerExists(ctx, other, ds)
		if err != nil {
			return "", err
		}
		if ok {
			otherSubmitted = true
			break
		}
	}

	marker := model.SubmittedMarker
	if len(assigned) >= 2 && otherSubmitted {
		first, second := assigned[0], assigned[1]
		res, err := s.Comparator.Compare(ctx, first, second, ds)
		if err != nil {
			return "", fmt.Errorf("comparison failed: %w", err)
		}
		if err := s.syncDisagreements(ctx, ds, first, second, res); err != nil {
			return "", fmt.Errorf("database update failed: %w", err)
		}

		marker = res.Accuracy.Marker()
		for _, other := range []string{first, second} {
			if other == pid {
				continue
			}
			if err := s.Responses.SetMarker(ctx, other, ds, marker); err != nil {
				return "", err
			}
		}
	}

	next, err := s.Campaigns.NextDataset(ctx, pid, ds)
	if err != nil {
		return "", err
	}

	output := "Thank you for your submission. A new dataset has been assigned to you."
	if next == "" {
		output = "Thank you for your submission. There are no further datasets available right now."
	}

	if err := s.Responses.SetMarker(ctx, pid, ds, marker); err != nil {
		return "", err
	}
	return output, nil
}

// applyEvalFile reads the grader's JSONL eval file and patches each listed
// response with its evaluation, then mirrors the rows into the archive.
func (s *SubmissionService) applyEvalFile(ctx context.Context, pid, ds string, res *model.GradeResult) error {
	path := res.EvalFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.EvalDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var archived []model.EvalRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var update model.EvalUpdate
		if err := json.Unmarshal([]byte(line), &update); err != nil {
			logger.Log.Warn("bad eval file line", zap.String("file", path), zap.Error(err))
			continue
		}

		resp, err := s.Responses.Get(ctx, pid, ds, update.UID)
		if err != nil {
			return err
		}
		if resp == nil {
			logger.Log.Warn("eval update for unknown response",
				zap.String("pid", pid), zap.String("dataset", ds), zap.String("uid", update.UID))
			continue
		}

		resp.LLMEval = update.LLMEval
		if err := s.Responses.Set(ctx, resp); err != nil {
			return err
		}

		archived = append(archived, model.EvalRecord{
			ProlificID: pid,
			Dataset:    ds,
			UID:        update.UID,
			LLMEval:    update.LLMEval,
			Accuracy:   res.Accuracy.Number,
			EvalFile:   res.EvalFile,
		})
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if s.Archive != nil {
		if err := s.Archive.SaveEvalRecords(archived); err != nil {
			logger.Log.Error("archive write failed", zap.Error(err))
		}
	}
	return nil
}

// syncDisagreements patches both annotators' responses for every question
// the comparator flagged: each side gets the evaluation plus the other
// side's answer.
func (s *SubmissionService) syncDisagreements(ctx context.Context, ds, first, second string, res *model.CompareResult) error {
	var archived []model.DisagreementRecord
	for _, ann := range res.IncorrectAnnotations {
		resp1, err := s.Responses.Get(ctx, first, ds, ann.UID)
		if err != nil {
			return err
		}
		resp2, err := s.Responses.Get(ctx, second, ds, ann.UID)
		if err != nil {
			return err
		}
		if resp1 == nil || resp2 == nil {
			logger.Log.Warn("disagreement for unknown response pair",
				zap.String("dataset", ds), zap.String("uid", ann.UID))
			continue
		}

		resp1.LLMEval = ann.LLMEval
		resp1.NonconcurredResponse = ann.PredText
		if err := s.Responses.Set(ctx, resp1); err != nil {
			return err
		}

		resp2.LLMEval = ann.LLMEval
		resp2.NonconcurredResponse = ann.Label
		if err := s.Responses.Set(ctx, resp2); err != nil {
			return err
		}

		archived = append(archived, model.DisagreementRecord{
			Dataset:      ds,
			UID:          ann.UID,
			FirstPID:     first,
			SecondPID:    second,
			FirstAnswer:  ann.Label,
			SecondAnswer: ann.PredText,
			LLMEval:      ann.LLMEval,
			Accuracy:     res.Accuracy.Number,
		})
	}

	if s.Archive != nil {
		if err := s.Archive.SaveDisagreements(archived); err != nil {
			logger.Log.Error("archive write failed", zap.Error(err))
		}
	}
	return nil
}

// SetMarkerValue stores a raw submission marker, for the direct finalize
// endpoint that bypasses grading.
func (s *SubmissionService) SetMarkerValue(ctx context.Context, pid, ds, value string) error {
	if !s.Registry.Contains(ds) {
		return util.ErrDatasetNotFound
	}
	if value == "" {
		value = model.SubmittedMarker
	}
	return s.Responses.SetMarker(ctx, pid, ds, value)
}
