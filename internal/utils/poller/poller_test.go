package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller(t *testing.T) {
	t.Run("runs until context cancellation", func(t *testing.T) {
		var calls atomic.Int32
		p := NewPoller("test", 5*time.Millisecond, func(ctx context.Context) error {
			if calls.Add(1)%2 == 0 {
				return errors.New("every second call fails")
			}
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			p.Start(ctx)
			close(done)
		}()

		require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
		cancel()
		<-done
	})
	t.Run("stop", func(t *testing.T) {
		p := NewPoller("test", time.Hour, func(ctx context.Context) error { return nil })
		done := make(chan struct{})
		go func() {
			p.Start(context.Background())
			close(done)
		}()
		p.Stop()

		select {
		case <-done:
		case <-time.After(time.Second):
			assert.Fail(t, "poller did not stop")
		}
	})
}
