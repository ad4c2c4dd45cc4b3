package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAccessMirrorsBothSides(t *testing.T) {
	repo := NewAssignmentRepository(newTestRedis(t))
	ctx := testCtx()

	require.NoError(t, repo.SetAccess(ctx, "P1", "D1", true))

	datasets, err := repo.UserDatasets(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1"}, datasets)

	users, err := repo.AssignedUsers(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, users)

	assigned, err := repo.IsAssigned(ctx, "D1", "P1")
	require.NoError(t, err)
	assert.True(t, assigned)
}

func TestSetAccessRevoke(t *testing.T) {
	repo := NewAssignmentRepository(newTestRedis(t))
	ctx := testCtx()

	require.NoError(t, repo.SetAccess(ctx, "P1", "D1", true))
	require.NoError(t, repo.SetAccess(ctx, "P1", "D1", false))

	datasets, err := repo.UserDatasets(ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, datasets)

	count, err := repo.AssignedCount(ctx, "D1")
	require.NoError(t, err)
	assert.Zero(t, count)
}
