package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postalsys/certs/pkg/async"
)

func TestAsync_Await(t *testing.T) {
	t.Parallel()

	future := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})

	got, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.True(t, future.IsComplete())
}

func TestAsync_Error(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	future := async.Async(context.Background(), struct{}{}, func(context.Context, struct{}) (string, error) {
		return "", wantErr
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, wantErr)
}

func TestAsync_AwaitWithTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	future := async.Async(context.Background(), struct{}{}, func(context.Context, struct{}) (int, error) {
		<-release
		return 1, nil
	})

	_, err := future.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)
	assert.False(t, future.IsComplete())

	close(release)
	got, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestAsync_PreCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	future := async.Async(ctx, struct{}{}, func(context.Context, struct{}) (int, error) {
		t.Error("function must not run with a pre-canceled context")
		return 0, nil
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, context.Canceled)
}
