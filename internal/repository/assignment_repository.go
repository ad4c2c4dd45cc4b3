package repository

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// AssignmentRepository maintains the mirrored user<->dataset membership sets.
// The pair is updated in one pipeline; the store itself offers no cross-key
// transaction, so readers may briefly observe one side only.
type AssignmentRepository struct {
	RDB *redis.Client
}

func NewAssignmentRepository(rdb *redis.Client) *AssignmentRepository {
	return &AssignmentRepository{RDB: rdb}
}

func (r *AssignmentRepository) SetAccess(ctx context.Context, pid, ds string, allow bool) error {
	pipe := r.RDB.Pipeline()
	if allow {
		pipe.SAdd(ctx, keyAssignments(pid), ds)
		pipe.SAdd(ctx, keyAssignments(ds), pid)
	} else {
		pipe.SRem(ctx, keyAssignments(pid), ds)
		pipe.SRem(ctx, keyAssignments(ds), pid)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *AssignmentRepository) UserDatasets(ctx context.Context, pid string) ([]string, error) {
	return r.RDB.SMembers(ctx, keyAssignments(pid)).Result()
}

func (r *AssignmentRepository) AssignedUsers(ctx context.Context, ds string) ([]string, error) {
	return r.RDB.SMembers(ctx, keyAssignments(ds)).Result()
}

func (r *AssignmentRepository) IsAssigned(ctx context.Context, ds, pid string) (bool, error) {
	return r.RDB.SIsMember(ctx, keyAssignments(ds), pid).Result()
}

func (r *AssignmentRepository) AssignedCount(ctx context.Context, ds string) (int64, error) {
	return r.RDB.SCard(ctx, keyAssignments(ds)).Result()
}
