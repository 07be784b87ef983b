package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(4)
	var n int64
	for i := 0; i < 20; i++ {
		p.Go(context.Background(), func(ctx context.Context) error {
			atomic.AddInt64(&n, 1)
			return nil
		})
	}
	require.NoError(t, p.Wait())
	require.EqualValues(t, 20, n)
}

func TestPoolLimitsConcurrencyToWidth(t *testing.T) {
	p := New(2)
	var current, max int64
	for i := 0; i < 10; i++ {
		p.Go(context.Background(), func(ctx context.Context) error {
			cur := atomic.AddInt64(&current, 1)
			for {
				m := atomic.LoadInt64(&max)
				if cur <= m || atomic.CompareAndSwapInt64(&max, m, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
			return nil
		})
	}
	require.NoError(t, p.Wait())
	require.LessOrEqual(t, max, int64(2))
}

func TestPoolWaitReturnsFirstError(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")
	p.Go(context.Background(), func(ctx context.Context) error { return boom })
	p.Go(context.Background(), func(ctx context.Context) error { return errors.New("second") })

	err := p.Wait()
	require.Error(t, err)
}

// With the single slot occupied, a canceled-context Go call must not
// block waiting for the slot and must not run its job.
func TestPoolGoSkipsJobWhenContextAlreadyCanceled(t *testing.T) {
	p := New(1)
	release := make(chan struct{})
	started := make(chan struct{})
	p.Go(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran bool
	p.Go(ctx, func(ctx context.Context) error {
		ran = true
		return nil
	})

	close(release)
	require.NoError(t, p.Wait())
	require.False(t, ran)
}

func TestNewDefaultsWidthWhenNonPositive(t *testing.T) {
	p := New(0)
	require.NotNil(t, p.sem)
	require.Positive(t, cap(p.sem))
}
