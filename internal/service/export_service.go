package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"map_survey_backend/internal/config"
	"map_survey_backend/internal/repository"
	"map_survey_backend/internal/util"
	"map_survey_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

const ndjsonContentType = "application/x-ndjson"

// ExportService renders stored responses as JSON lines, both for the
// per-user download endpoint and for the nightly adjudicated-data export.
type ExportService struct {
	Responses     *repository.ResponseRepository
	Adjudications *repository.AdjudicationRepository
	Registry      *DatasetRegistry
	Storage       StorageProvider
}

func NewExportService(
	responses *repository.ResponseRepository,
	adjudications *repository.AdjudicationRepository,
	registry *DatasetRegistry,
	storage StorageProvider,
) *ExportService {
	return &ExportService{
		Responses:     responses,
		Adjudications: adjudications,
		Registry:      registry,
		Storage:       storage,
	}
}

// StreamResponses writes one JSON line per stored response of a user in a
// dataset.
func (s *ExportService) StreamResponses(ctx context.Context, pid, ds string, w io.Writer) error {
	if !s.Registry.Contains(ds) {
		return util.ErrDatasetNotFound
	}

	responses, err := s.Responses.ListByUserDataset(ctx, pid, ds)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for i := range responses {
		if err := enc.Encode(&responses[i]); err != nil {
			return err
		}
	}
	return nil
}

// ExportAdjudicated writes every resolved case's response to the storage
// provider, one JSONL file per dataset.
func (s *ExportService) ExportAdjudicated(ctx context.Context) error {
	keys, err := s.Adjudications.ListPast(ctx)
	if err != nil {
		return err
	}

	buffers := map[string]*bytes.Buffer{}
	for _, key := range keys {
		resp, err := s.Responses.Get(ctx, key.PID, key.Dataset, key.UID)
		if err != nil {
			return err
		}
		if resp == nil {
			continue
		}

		buf, ok := buffers[key.Dataset]
		if !ok {
			buf = &bytes.Buffer{}
			buffers[key.Dataset] = buf
		}
		if err := json.NewEncoder(buf).Encode(resp); err != nil {
			return err
		}
	}

	for ds, buf := range buffers {
		name := fmt.Sprintf("adjudicated/%s.jsonl", ds)
		loc, err := s.Storage.Put(ctx, name, buf.Bytes(), ndjsonContentType)
		if err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		logger.Log.Info("adjudicated export written", zap.String("location", loc))
	}
	return nil
}

// RunDaily blocks until ctx is cancelled, exporting adjudicated data once a
// day at the configured hour.
func (s *ExportService) RunDaily(ctx context.Context, cfg config.ExportConfig) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Log.Error("bad export timezone, falling back to UTC",
			zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	for {
		next := NextRunAfter(time.Now().In(loc), cfg.DailyHour)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.ExportAdjudicated(ctx); err != nil {
			logger.Log.Error("daily adjudicated export failed", zap.Error(err))
		}
	}
}

// NextRunAfter returns the next occurrence of hour o'clock strictly after
// now, in now's location.
func NextRunAfter(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
