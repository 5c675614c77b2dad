package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerPurgesExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.store.CreateResetToken(ctx, "ada@example.com", "old", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = env.store.CreateResetToken(ctx, "bob@example.com", "fresh", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, env.store.RevokeSession(ctx, "gone", time.Now().Add(-time.Minute)))
	require.NoError(t, env.store.RevokeSession(ctx, "live", time.Now().Add(time.Hour)))

	NewScheduler(env.resets, env.sessions).PurgeExpiredTask()

	_, err = env.store.FindValidResetToken(ctx, "fresh")
	assert.NoError(t, err)
	revoked, err := env.store.IsSessionRevoked(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, revoked)
	revoked, err = env.store.IsSessionRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	env := newTestEnv(t)
	s := NewScheduler(env.resets, env.sessions)

	assert.Error(t, s.Start("every now and then"))

	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
