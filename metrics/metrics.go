// Package metrics exposes Prometheus metrics for the account lifecycle.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-persona"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records lifecycle metrics
type Collector struct {
	published      *prometheus.CounterVec
	failed         *prometheus.CounterVec
	publishLatency prometheus.Histogram
	transitions    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_events_published_total",
			Help: "Lifecycle events published, by event name",
		}, []string{"event"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_events_failed_total",
			Help: "Lifecycle events that failed to publish, by event name",
		}, []string{"event"}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "persona_event_publish_seconds",
			Help:    "Time spent publishing a lifecycle event",
			Buckets: prometheus.DefBuckets,
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_status_transitions_total",
			Help: "Account status transitions, by source and target status",
		}, []string{"from", "to"}),
	}

	reg.MustRegister(
		c.published,
		c.failed,
		c.publishLatency,
		c.transitions,
	)

	return c
}

// Instrument wraps next so every publish is counted and timed
func (c *Collector) Instrument(next persona.EventPublisher) persona.EventPublisher {
	return persona.EventPublisherFunc(func(ctx context.Context, event persona.Event) error {
		start := time.Now()
		var err error
		if next != nil {
			err = next.Publish(ctx, event)
		}
		c.publishLatency.Observe(time.Since(start).Seconds())

		if err != nil {
			c.failed.WithLabelValues(event.Name).Inc()
			return err
		}

		c.published.WithLabelValues(event.Name).Inc()
		return nil
	})
}

// StatusHook returns a hook counting status transitions. Register it
// with persona.WithStatusHooks.
func (c *Collector) StatusHook() persona.StatusHook {
	return func(_ context.Context, change persona.StatusChange) error {
		from := change.From
		if from == "" {
			from = "none"
		}
		c.transitions.WithLabelValues(from, change.To).Inc()
		return nil
	}
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
