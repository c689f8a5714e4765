// Package eventbus delivers persona lifecycle events to external transports.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-persona"
	"github.com/goliatone/go-persona/activitymap"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "persona"
	dialTimeout   = 3 * time.Second
	readTimeout   = 2 * time.Second
	writeTimeout  = 2 * time.Second
	pingTimeout   = 2 * time.Second
)

// RedisClient is the subset of *redis.Client used to publish
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes lifecycle events as JSON to redis pub/sub
// channels named "<prefix>:<event name>".
type RedisPublisher struct {
	client    RedisClient
	prefix    string
	normalize []activitymap.Option
	logger    persona.Logger
}

var _ persona.EventPublisher = (*RedisPublisher)(nil)

// RedisOption customizes a RedisPublisher
type RedisOption func(*RedisPublisher)

// WithPrefix sets the channel prefix
func WithPrefix(prefix string) RedisOption {
	return func(p *RedisPublisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithNormalizeOptions customizes the published payload
func WithNormalizeOptions(opts ...activitymap.Option) RedisOption {
	return func(p *RedisPublisher) {
		p.normalize = append(p.normalize, opts...)
	}
}

// WithLogger overrides the logger
func WithLogger(logger persona.Logger) RedisOption {
	return func(p *RedisPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewRedisPublisher creates a publisher on top of client
func NewRedisPublisher(client RedisClient, opts ...RedisOption) *RedisPublisher {
	p := &RedisPublisher{
		client: client,
		prefix: defaultPrefix,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	_, p.logger = persona.ResolveLogger("persona.eventbus", nil, p.logger)

	return p
}

// Channel returns the channel an event name is published to
func (p *RedisPublisher) Channel(name string) string {
	return p.prefix + ":" + name
}

// Publish implements persona.EventPublisher.
func (p *RedisPublisher) Publish(ctx context.Context, event persona.Event) error {
	payload, err := json.Marshal(activitymap.Normalize(event, p.normalize...))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode event").
			WithMetadata(map[string]any{"event": event.Name})
	}

	channel := p.Channel(event.Name)
	receivers, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to publish event").
			WithMetadata(map[string]any{"event": event.Name, "channel": channel})
	}

	p.logger.Debug("event published", "channel", channel, "receivers", receivers)
	return nil
}

// NewRedisClient parses a redis URL and returns a connected client
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid redis URL")
	}

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "redis ping failed")
	}

	return client, nil
}
