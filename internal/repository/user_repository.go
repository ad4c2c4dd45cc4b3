package repository

import (
	"context"

	"github.com/go-redis/redis/v8"
)

type UserRepository struct {
	RDB *redis.Client
}

func NewUserRepository(rdb *redis.Client) *UserRepository {
	return &UserRepository{RDB: rdb}
}

// EnsureUser registers the participant id, reporting whether it was new.
func (r *UserRepository) EnsureUser(ctx context.Context, pid string) (bool, error) {
	added, err := r.RDB.SAdd(ctx, keyUsers, pid).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]string, error) {
	return r.RDB.SMembers(ctx, keyUsers).Result()
}
