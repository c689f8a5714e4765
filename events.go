package persona

import (
	"context"
	"time"
)

// Event names published after a successful mutation
const (
	EventUserCreated       = "user::created"
	EventEmailChanged      = "email::changed"
	EventPasswordChanged   = "password::changed"
	EventForgotPassword    = "forgot::password"
	EventPasswordRecovered = "password::recovered"
)

// Event describes a lifecycle change. Token is set for user::created,
// email::changed and forgot::password, OldEmail only for email::changed.
type Event struct {
	Name       string    `json:"name"`
	Account    *Account  `json:"account"`
	Token      string    `json:"token,omitempty"`
	OldEmail   string    `json:"old_email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventPublisherFunc adapts a function to the EventPublisher interface.
type EventPublisherFunc func(ctx context.Context, event Event) error

// Publish implements EventPublisher.
func (f EventPublisherFunc) Publish(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, Event) error {
	return nil
}

func normalizeEventPublisher(p EventPublisher) EventPublisher {
	if p == nil {
		return noopEventPublisher{}
	}
	return p
}

// eventBuffer holds events until flush, e.g. until a transaction commits
type eventBuffer struct {
	events []Event
}

func (b *eventBuffer) Publish(_ context.Context, event Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *eventBuffer) flush(ctx context.Context, target EventPublisher) error {
	for _, event := range b.events {
		if err := target.Publish(ctx, event); err != nil {
			return err
		}
	}
	b.events = nil
	return nil
}
