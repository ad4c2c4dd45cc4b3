package repository

import (
	"context"
	"encoding/json"
	"map_survey_backend/internal/model"
	"map_survey_backend/pkg/logger"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type ResponseRepository struct {
	RDB *redis.Client
}

func NewResponseRepository(rdb *redis.Client) *ResponseRepository {
	return &ResponseRepository{RDB: rdb}
}

func (r *ResponseRepository) Get(ctx context.Context, pid, ds, uid string) (*model.Response, error) {
	raw, err := r.RDB.Get(ctx, keyResponse(pid, ds, uid)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp model.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Set upserts a response. Last write wins; there is no per-key locking.
func (r *ResponseRepository) Set(ctx context.Context, resp *model.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, keyResponse(resp.ProlificID, resp.Dataset, resp.UID), raw, 0).Err()
}

func (r *ResponseRepository) Exists(ctx context.Context, pid, ds, uid string) (bool, error) {
	n, err := r.RDB.Exists(ctx, keyResponse(pid, ds, uid)).Result()
	return n == 1, err
}

// ListByUserDataset scans all of a user's responses in a dataset, skipping
// the submission marker and any unparseable record.
func (r *ResponseRepository) ListByUserDataset(ctx context.Context, pid, ds string) ([]model.Response, error) {
	pattern := "v1:" + pid + ":" + ds + ":*"
	out := []model.Response{}

	iter := r.RDB.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, ":meta") {
			continue
		}

		raw, err := r.RDB.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}

		var resp model.Response
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			logger.Log.Warn("bad response JSON", zap.String("key", key), zap.Error(err))
			continue
		}
		if resp.UID == "" {
			continue
		}
		out = append(out, resp)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DatasetsWithResponses reports which datasets hold at least one answer from
// this user, via a single scan over the user's keys.
func (r *ResponseRepository) DatasetsWithResponses(ctx context.Context, pid string) (map[string]bool, error) {
	pattern := "v1:" + pid + ":*:*"
	out := map[string]bool{}

	iter := r.RDB.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, ":meta") {
			continue
		}
		parts := strings.Split(key, ":") // ["v1", pid, ds, uid]
		if len(parts) != 4 {
			continue
		}
		out[parts[2]] = true
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Submission markers -------------------------------------------------------

func (r *ResponseRepository) MarkerExists(ctx context.Context, pid, ds string) (bool, error) {
	n, err := r.RDB.Exists(ctx, keyMarker(pid, ds)).Result()
	return n == 1, err
}

func (r *ResponseRepository) GetMarker(ctx context.Context, pid, ds string) (string, bool, error) {
	raw, err := r.RDB.Get(ctx, keyMarker(pid, ds)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

func (r *ResponseRepository) SetMarker(ctx context.Context, pid, ds, value string) error {
	return r.RDB.Set(ctx, keyMarker(pid, ds), value, 0).Err()
}
