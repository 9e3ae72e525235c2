package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SetAndGet(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	r := NewRegistry(client, time.Hour)

	require.NoError(t, r.SetState(ctx, "job-1", StatePending, ""))
	rec, err := r.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, rec.State)
	assert.Empty(t, rec.Error)

	require.NoError(t, r.SetState(ctx, "job-1", StateFailure, "boom"))
	rec, err = r.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateFailure, rec.State)
	assert.Equal(t, "boom", rec.Error)
}

func TestRegistry_NotFound(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	r := NewRegistry(client, time.Hour)

	_, err := r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRegistry_Expires(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	r := NewRegistry(client, time.Minute)
	require.NoError(t, r.SetState(ctx, "job-ttl", StateStarted, ""))

	mr.FastForward(2 * time.Minute)

	_, err := r.Get(ctx, "job-ttl")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
