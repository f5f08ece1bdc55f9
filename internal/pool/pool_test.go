package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapRunsAllItems(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}

	errs := Map(context.Background(), 4, []int{1, 2, 3, 4, 5}, func(_ context.Context, n int) error {
		mu.Lock()
		defer mu.Unlock()
		seen[n] = true
		return nil
	})

	require.Len(t, errs, 5)
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, seen, 5)
}

func TestMapBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32

	Map(context.Background(), 2, make([]struct{}, 16), func(_ context.Context, _ struct{}) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		active.Add(-1)
		return nil
	})

	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMapKeepsGoingAfterFailures(t *testing.T) {
	boom := errors.New("boom")

	errs := Map(context.Background(), 1, []int{0, 1, 2}, func(_ context.Context, n int) error {
		if n == 1 {
			return boom
		}
		return nil
	})

	require.NoError(t, errs[0])
	require.ErrorIs(t, errs[1], boom)
	require.NoError(t, errs[2])

	first, failed := FirstError(errs)
	require.ErrorIs(t, first, boom)
	require.Equal(t, 1, failed)
}

func TestMapContainsPanics(t *testing.T) {
	errs := Map(context.Background(), 2, []int{0, 1}, func(_ context.Context, n int) error {
		if n == 0 {
			panic("kaboom")
		}
		return nil
	})

	require.ErrorContains(t, errs[0], "kaboom")
	require.NoError(t, errs[1])
}

func TestMapZeroWorkers(t *testing.T) {
	errs := Map(context.Background(), 0, []int{1}, func(_ context.Context, _ int) error { return nil })
	require.Len(t, errs, 1)
	require.NoError(t, errs[0])
}
