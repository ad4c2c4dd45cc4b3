package repository

import (
	"context"
	"encoding/json"
	"map_survey_backend/internal/model"
	"map_survey_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type DatasetRepository struct {
	RDB *redis.Client
}

func NewDatasetRepository(rdb *redis.Client) *DatasetRepository {
	return &DatasetRepository{RDB: rdb}
}

func (r *DatasetRepository) ListIDs(ctx context.Context) ([]string, error) {
	return r.RDB.SMembers(ctx, keyDatasets).Result()
}

func (r *DatasetRepository) Register(ctx context.Context, ds string) error {
	return r.RDB.SAdd(ctx, keyDatasets, ds).Err()
}

// Unregister removes the dataset from the catalog set. Question and response
// keys are kept; a re-registered dataset picks them up again.
func (r *DatasetRepository) Unregister(ctx context.Context, ds string) error {
	return r.RDB.SRem(ctx, keyDatasets, ds).Err()
}

// GetMeta returns the dataset metadata, falling back to defaults when the
// record is missing or unparseable.
func (r *DatasetRepository) GetMeta(ctx context.Context, ds string) (model.DatasetMeta, error) {
	raw, err := r.RDB.Get(ctx, keyDatasetMeta(ds)).Result()
	if err == redis.Nil {
		return model.DefaultDatasetMeta(ds), nil
	}
	if err != nil {
		return model.DatasetMeta{}, err
	}

	var meta model.DatasetMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		logger.Log.Warn("bad dataset meta JSON", zap.String("dataset", ds), zap.Error(err))
		return model.DefaultDatasetMeta(ds), nil
	}
	return meta, nil
}

func (r *DatasetRepository) SetMeta(ctx context.Context, ds string, meta model.DatasetMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, keyDatasetMeta(ds), raw, 0).Err()
}

func (r *DatasetRepository) QuestionUIDs(ctx context.Context, ds string) ([]string, error) {
	return r.RDB.SMembers(ctx, keyDatasetQuestions(ds)).Result()
}

func (r *DatasetRepository) QuestionCount(ctx context.Context, ds string) (int64, error) {
	return r.RDB.SCard(ctx, keyDatasetQuestions(ds)).Result()
}

// GetQuestions loads every question blob of a dataset. Records with
// malformed JSON are skipped with a warning.
func (r *DatasetRepository) GetQuestions(ctx context.Context, ds string) ([]model.Question, error) {
	uids, err := r.QuestionUIDs(ctx, ds)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return []model.Question{}, nil
	}

	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = keyQuestion(ds, uid)
	}

	vals, err := r.RDB.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // key missing
		}
		var q model.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			logger.Log.Warn("bad question JSON",
				zap.String("dataset", ds), zap.String("uid", uids[i]), zap.Error(err))
			continue
		}
		q.Normalize()
		questions = append(questions, q)
	}
	return questions, nil
}

func (r *DatasetRepository) GetQuestion(ctx context.Context, ds, uid string) (*model.Question, error) {
	raw, err := r.RDB.Get(ctx, keyQuestion(ds, uid)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var q model.Question
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, err
	}
	q.Normalize()
	return &q, nil
}

func (r *DatasetRepository) AddQuestion(ctx context.Context, ds string, q model.Question) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	pipe := r.RDB.Pipeline()
	pipe.SAdd(ctx, keyDatasetQuestions(ds), q.UID)
	pipe.Set(ctx, keyQuestion(ds, q.UID), raw, 0)
	_, err = pipe.Exec(ctx)
	return err
}

// BulkAddQuestions inserts generator output in one pipeline. Entries without
// a uid are dropped.
func (r *DatasetRepository) BulkAddQuestions(ctx context.Context, ds string, questions []model.Question) error {
	pipe := r.RDB.Pipeline()
	for _, q := range questions {
		if q.UID == "" {
			continue
		}
		raw, err := json.Marshal(q)
		if err != nil {
			return err
		}
		pipe.SAdd(ctx, keyDatasetQuestions(ds), q.UID)
		pipe.Set(ctx, keyQuestion(ds, q.UID), raw, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}
