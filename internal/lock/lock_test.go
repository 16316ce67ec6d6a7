package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_ReleaseAllowsReacquire(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", ".lock")

	unlock, err := Acquire(context.Background(), p, time.Second)
	require.NoError(t, err)
	unlock()

	unlock, err = Acquire(context.Background(), p, time.Second)
	require.NoError(t, err)
	unlock()
}

func TestAcquire_BusyTimesOut(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".lock")

	unlock, err := Acquire(context.Background(), p, time.Second)
	require.NoError(t, err)
	defer unlock()

	start := time.Now()
	_, err = Acquire(context.Background(), p, 300*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in progress")
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestAcquire_CancelledContext(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".lock")

	unlock, err := Acquire(context.Background(), p, time.Second)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Acquire(ctx, p, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
