package repository

import (
	"context"
	"map_survey_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

type AdjudicationRepository struct {
	RDB *redis.Client
}

func NewAdjudicationRepository(rdb *redis.Client) *AdjudicationRepository {
	return &AdjudicationRepository{RDB: rdb}
}

func (r *AdjudicationRepository) AddPending(ctx context.Context, key model.AdjudicationKey) error {
	return r.RDB.SAdd(ctx, keyPendingAdjudication, key.String()).Err()
}

func (r *AdjudicationRepository) RemovePending(ctx context.Context, key model.AdjudicationKey) error {
	return r.RDB.SRem(ctx, keyPendingAdjudication, key.String()).Err()
}

func (r *AdjudicationRepository) ListPending(ctx context.Context) ([]model.AdjudicationKey, error) {
	return r.listKeys(ctx, keyPendingAdjudication)
}

func (r *AdjudicationRepository) AddPast(ctx context.Context, key model.AdjudicationKey) error {
	return r.RDB.SAdd(ctx, keyPastAdjudication, key.String()).Err()
}

func (r *AdjudicationRepository) ListPast(ctx context.Context) ([]model.AdjudicationKey, error) {
	return r.listKeys(ctx, keyPastAdjudication)
}

func (r *AdjudicationRepository) listKeys(ctx context.Context, setKey string) ([]model.AdjudicationKey, error) {
	ids, err := r.RDB.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]model.AdjudicationKey, 0, len(ids))
	for _, id := range ids {
		if key, ok := model.ParseAdjudicationKey(id); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
