package expense

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, updates <-chan Update) Update {
	t.Helper()
	select {
	case update, ok := <-updates:
		require.True(t, ok, "updates closed")
		return update
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
	}
	return Update{}
}

func TestPoller(t *testing.T) {
	t.Run("should fetch immediately and then on every tick", func(t *testing.T) {
		// given
		var calls atomic.Int32
		poller := NewPoller(func(ctx context.Context) (Dashboard, error) {
			n := calls.Add(1)
			return Dashboard{StoreId: string(rune('a' + n - 1))}, nil
		}, 20*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// when
		go poller.Run(ctx)
		first := receive(t, poller.Updates())
		second := receive(t, poller.Updates())

		// then
		assert.Equal(t, uint64(1), first.Seq)
		assert.Equal(t, "a", first.Dashboard.StoreId)
		assert.Greater(t, second.Seq, first.Seq)
		latest, ok := poller.Latest()
		require.True(t, ok)
		assert.GreaterOrEqual(t, latest.Seq, second.Seq)
	})

	t.Run("should publish cycles slower than the interval", func(t *testing.T) {
		// given
		var calls atomic.Int32
		poller := NewPoller(func(ctx context.Context) (Dashboard, error) {
			calls.Add(1)
			select {
			case <-time.After(30 * time.Millisecond):
			case <-ctx.Done():
				return Dashboard{}, ctx.Err()
			}
			return Dashboard{StoreId: "slow"}, nil
		}, 10*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// when
		go poller.Run(ctx)
		first := receive(t, poller.Updates())
		second := receive(t, poller.Updates())

		// then
		assert.Equal(t, "slow", first.Dashboard.StoreId)
		assert.NoError(t, first.Err)
		assert.Greater(t, second.Seq, first.Seq)
		assert.Greater(t, calls.Load(), int32(1))
	})

	t.Run("should drop a result older than the one already published", func(t *testing.T) {
		// given
		releaseFirst := make(chan struct{})
		var calls atomic.Int32
		poller := NewPoller(func(ctx context.Context) (Dashboard, error) {
			if calls.Add(1) == 1 {
				<-releaseFirst
				return Dashboard{StoreId: "stale"}, nil
			}
			return Dashboard{StoreId: "fresh"}, nil
		}, 20*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// when
		go poller.Run(ctx)
		fresh := receive(t, poller.Updates())
		close(releaseFirst)
		next := receive(t, poller.Updates())

		// then
		assert.Equal(t, "fresh", fresh.Dashboard.StoreId)
		assert.Greater(t, fresh.Seq, uint64(1))
		assert.Equal(t, "fresh", next.Dashboard.StoreId)
		assert.Greater(t, next.Seq, fresh.Seq)
	})

	t.Run("should publish failures as error updates", func(t *testing.T) {
		// given
		failure := errors.New("Unauthorized")
		poller := NewPoller(func(ctx context.Context) (Dashboard, error) {
			return Dashboard{}, failure
		}, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// when
		go poller.Run(ctx)
		update := receive(t, poller.Updates())

		// then
		assert.ErrorIs(t, update.Err, failure)
	})

	t.Run("should stop and close updates when context ends", func(t *testing.T) {
		// given
		poller := NewPoller(func(ctx context.Context) (Dashboard, error) {
			<-ctx.Done()
			return Dashboard{}, ctx.Err()
		}, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		// when
		go func() {
			poller.Run(ctx)
			close(done)
		}()
		cancel()

		// then
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("poller did not stop")
		}
		_, open := <-poller.Updates()
		assert.False(t, open)
		_, ok := poller.Latest()
		assert.False(t, ok)
	})
}
