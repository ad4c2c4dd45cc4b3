package repository

import (
	"context"
	"encoding/json"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

type CampaignRepository struct {
	RDB *redis.Client
}

func NewCampaignRepository(rdb *redis.Client) *CampaignRepository {
	return &CampaignRepository{RDB: rdb}
}

func (r *CampaignRepository) Members(ctx context.Context, topic string) ([]string, error) {
	return r.RDB.SMembers(ctx, keyCampaign(topic)).Result()
}

func (r *CampaignRepository) AddDataset(ctx context.Context, topic, ds string) error {
	return r.RDB.SAdd(ctx, keyCampaign(topic), ds).Err()
}

func (r *CampaignRepository) RemoveDataset(ctx context.Context, topic, ds string) error {
	return r.RDB.SRem(ctx, keyCampaign(topic), ds).Err()
}

// GetMeta parses the campaign cursor/quota record. Missing and malformed
// records are distinct errors because provisioning must refuse to run
// without a valid quota.
func (r *CampaignRepository) GetMeta(ctx context.Context, topic string) (*model.CampaignMeta, error) {
	raw, err := r.RDB.Get(ctx, keyCampaignMeta(topic)).Result()
	if err == redis.Nil {
		return nil, util.ErrCampaignMetaMissing
	}
	if err != nil {
		return nil, err
	}

	var meta model.CampaignMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, util.ErrCampaignMetaInvalid
	}
	return &meta, nil
}

func (r *CampaignRepository) SetMeta(ctx context.Context, topic string, meta model.CampaignMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, keyCampaignMeta(topic), raw, 0).Err()
}

// EnsureMeta writes a zeroed meta record once, for datasets moved into a
// campaign by hand before any generation ran.
func (r *CampaignRepository) EnsureMeta(ctx context.Context, topic string) error {
	n, err := r.RDB.Exists(ctx, keyCampaignMeta(topic)).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	return r.SetMeta(ctx, topic, model.CampaignMeta{})
}

// NextRephraseIndex increments the counter behind rephrased-question dataset
// names.
func (r *CampaignRepository) NextRephraseIndex(ctx context.Context, prefix string) (int64, error) {
	return r.RDB.Incr(ctx, keyRephraseIndex(prefix)).Result()
}
