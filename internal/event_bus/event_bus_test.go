package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should call handlers in subscription order", func(t *testing.T) {
		// given
		bus := NewEventBus()
		var calls []string
		bus.Subscribe(UserSignedInEvent, func(e Event) error {
			calls = append(calls, "first")
			return nil
		})
		bus.Subscribe(UserSignedInEvent, func(e Event) error {
			calls = append(calls, "second")
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), UserSignedInEvent, UserSignedIn{Email: "a@b.c"}))

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("should keep dispatching after a handler fails or panics", func(t *testing.T) {
		// given
		bus := NewEventBus()
		failure := errors.New("boom")
		called := false
		bus.Subscribe(StoreCreatedEvent, func(e Event) error { return failure })
		bus.Subscribe(StoreCreatedEvent, func(e Event) error { panic("oops") })
		bus.Subscribe(StoreCreatedEvent, func(e Event) error {
			called = true
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), StoreCreatedEvent, StoreCreated{StoreId: "s1"}))

		// then
		assert.ErrorIs(t, err, failure)
		assert.ErrorContains(t, err, "panicked")
		assert.True(t, called)
	})

	t.Run("should not dispatch when context is cancelled", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		bus.Subscribe(StoreCreatedEvent, func(e Event) error {
			called = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		err := bus.Publish(NewEvent(ctx, StoreCreatedEvent, StoreCreated{}))

		// then
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("should stop calling a handler after unsubscribe", func(t *testing.T) {
		// given
		bus := NewEventBus()
		count := 0
		unsubscribe := bus.Subscribe(StoreCreatedEvent, func(e Event) error {
			count++
			return nil
		})
		_ = bus.Publish(NewEvent(context.Background(), StoreCreatedEvent, StoreCreated{}))

		// when
		unsubscribe()
		_ = bus.Publish(NewEvent(context.Background(), StoreCreatedEvent, StoreCreated{}))

		// then
		assert.Equal(t, 1, count)
	})
}

func TestSubscribeTyped(t *testing.T) {
	t.Run("should pass typed payload and skip other types", func(t *testing.T) {
		// given
		bus := NewEventBus()
		var received []string
		SubscribeTyped(bus, UserSignedInEvent, func(e EventT[UserSignedIn]) error {
			received = append(received, e.Data.Email)
			return nil
		})

		// when
		err1 := bus.Publish(NewEvent(context.Background(), UserSignedInEvent, UserSignedIn{Email: "jane@example.com"}))
		err2 := bus.Publish(NewEvent(context.Background(), UserSignedInEvent, "not a payload"))

		// then
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, []string{"jane@example.com"}, received)
	})
}
