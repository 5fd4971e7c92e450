package deadline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Run(t *testing.T) {
	t.Run("fast operation completes", func(t *testing.T) {
		c := New()
		completed, err := c.Run(context.Background(), time.Second, func(ctx context.Context) error {
			return nil
		}, nil)
		require.NoError(t, err)
		assert.True(t, completed)
	})

	t.Run("operation error is surfaced", func(t *testing.T) {
		c := New()
		boom := errors.New("boom")
		completed, err := c.Run(context.Background(), time.Second, func(ctx context.Context) error {
			return boom
		}, nil)
		assert.True(t, completed)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("expiry invokes terminate and returns promptly", func(t *testing.T) {
		c := New(WithGrace(100 * time.Millisecond))
		var killed atomic.Bool

		start := time.Now()
		completed, err := c.Run(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, func() { killed.Store(true) })

		require.NoError(t, err)
		assert.False(t, completed)
		assert.True(t, killed.Load())
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("wedged operation cannot hang past grace", func(t *testing.T) {
		c := New(WithGrace(50 * time.Millisecond))
		block := make(chan struct{})
		defer close(block)

		start := time.Now()
		completed, err := c.Run(context.Background(), 30*time.Millisecond, func(ctx context.Context) error {
			<-block // ignores cancellation
			return nil
		}, func() {})

		require.NoError(t, err)
		assert.False(t, completed)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("parent cancellation forces teardown too", func(t *testing.T) {
		c := New(WithGrace(50 * time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		var killed atomic.Bool

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		completed, _ := c.Run(ctx, time.Minute, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, func() { killed.Store(true) })

		assert.False(t, completed)
		assert.True(t, killed.Load())
	})
}
