package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Exclusive(t *testing.T) {
	store, _ := setupTestRedis(t)
	locker := NewLocker(store, 5*time.Second, 200*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Obtain(ctx, "quote-transition:q1")
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "quote-transition:q1")
	assert.ErrorIs(t, err, ErrLockNotObtained)

	release()

	release2, err := locker.Obtain(ctx, "quote-transition:q1")
	require.NoError(t, err)
	release2()
}

func TestLocker_WithoutRedis(t *testing.T) {
	locker := NewLocker(&Store{}, time.Second, time.Second)
	release, err := locker.Obtain(context.Background(), "any")
	assert.NoError(t, err)
	release()

	var nilLocker *Locker
	release, err = nilLocker.Obtain(context.Background(), "any")
	assert.NoError(t, err)
	release()
}
