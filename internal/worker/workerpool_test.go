package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunSequentialOrder(t *testing.T) {
	var order []int
	err := NewPool(1).Run(context.Background(), 4, func(ctx context.Context, i int) error {
		order = append(order, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestPool_RunRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	err := NewPool(3).Run(context.Background(), 12, func(ctx context.Context, i int) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestPool_RunPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := NewPool(2).Run(context.Background(), 5, func(ctx context.Context, i int) error {
		if i == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestFirstSuccess_SequentialStopsAtFirst(t *testing.T) {
	var calls int32
	v, idx, found, err := FirstSuccess(context.Background(), NewPool(1), 5,
		func(ctx context.Context, i int) (string, bool, error) {
			atomic.AddInt32(&calls, 1)
			return "hit", i == 2, nil
		})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hit", v)
	assert.Equal(t, 2, idx)
	assert.Equal(t, int32(3), calls)
}

func TestFirstSuccess_ParallelCancelsRemaining(t *testing.T) {
	start := time.Now()
	v, idx, found, err := FirstSuccess(context.Background(), NewPool(4), 4,
		func(ctx context.Context, i int) (int, bool, error) {
			if i == 0 {
				return 42, true, nil
			}
			select {
			case <-ctx.Done():
				return 0, false, nil
			case <-time.After(2 * time.Second):
				return 0, false, nil
			}
		})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, v)
	assert.Equal(t, 0, idx)
	assert.Less(t, time.Since(start), time.Second, "in-flight tasks are cancelled")
}

func TestFirstSuccess_NoneFound(t *testing.T) {
	_, idx, found, err := FirstSuccess(context.Background(), NewPool(2), 3,
		func(ctx context.Context, i int) (int, bool, error) { return 0, false, nil })
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, -1, idx)
}

func TestFirstSuccess_ErrorAborts(t *testing.T) {
	boom := errors.New("auth")
	_, _, found, err := FirstSuccess(context.Background(), NewPool(1), 3,
		func(ctx context.Context, i int) (int, bool, error) { return 0, false, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, found)
}
