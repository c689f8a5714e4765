package eventbus

import (
	"context"
	"errors"

	"github.com/goliatone/go-persona"
)

// Multi fans an event out to every publisher. All publishers are tried,
// their failures are joined.
type Multi []persona.EventPublisher

// Publish implements persona.EventPublisher.
func (m Multi) Publish(ctx context.Context, event persona.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
