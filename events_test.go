package persona

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBufferFlush(t *testing.T) {
	buffer := &eventBuffer{}
	ctx := context.Background()

	require.NoError(t, buffer.Publish(ctx, Event{Name: EventUserCreated}))
	require.NoError(t, buffer.Publish(ctx, Event{Name: EventForgotPassword}))

	var names []string
	target := EventPublisherFunc(func(_ context.Context, event Event) error {
		names = append(names, event.Name)
		return nil
	})

	require.NoError(t, buffer.flush(ctx, target))
	assert.Equal(t, []string{EventUserCreated, EventForgotPassword}, names)

	require.NoError(t, buffer.flush(ctx, target))
	assert.Len(t, names, 2, "flushed events are not replayed")
}

func TestEventBufferFlushStopsOnError(t *testing.T) {
	buffer := &eventBuffer{}
	ctx := context.Background()

	_ = buffer.Publish(ctx, Event{Name: EventUserCreated})
	_ = buffer.Publish(ctx, Event{Name: EventEmailChanged})

	calls := 0
	err := buffer.flush(ctx, EventPublisherFunc(func(context.Context, Event) error {
		calls++
		return assert.AnError
	}))
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestNormalizeEventPublisher(t *testing.T) {
	p := normalizeEventPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), Event{Name: EventUserCreated}))

	var nilFunc EventPublisherFunc
	assert.NoError(t, nilFunc.Publish(context.Background(), Event{}))
}
