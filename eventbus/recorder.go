package eventbus

import (
	"context"
	"sync"

	"github.com/goliatone/go-persona"
)

// Recorder keeps every published event in memory
type Recorder struct {
	mu     sync.Mutex
	events []persona.Event
	err    error
}

var _ persona.EventPublisher = (*Recorder)(nil)

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent Publish calls return err without recording
func (r *Recorder) FailWith(err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

// Publish implements persona.EventPublisher.
func (r *Recorder) Publish(_ context.Context, event persona.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []persona.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]persona.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the recorded event names in order
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

// Last returns the most recent event with name
func (r *Recorder) Last(name string) (persona.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return persona.Event{}, false
}

// Reset drops the recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
