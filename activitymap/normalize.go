package activitymap

import (
	"strings"
	"time"

	"github.com/goliatone/go-persona"
	"github.com/google/uuid"
)

const (
	// MetadataKeyEmail stores the account email at the time of the event.
	MetadataKeyEmail = "email"
	// MetadataKeyStatus stores the account status at the time of the event.
	MetadataKeyStatus = "account_status"
	// MetadataKeyToken stores the token minted by the operation, if any.
	MetadataKeyToken = "token"
	// MetadataKeyOldEmail stores the previous email on email changes.
	MetadataKeyOldEmail = "old_email"
)

const (
	defaultChannel    = "persona"
	defaultObjectType = "account"
	defaultActorID    = "system"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
	omitToken     bool
}

// Normalize converts a persona.Event into a generic normalized shape.
// The account acts on itself, so actor and object ids are both its id.
func Normalize(event persona.Event, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	accountID := ""
	if event.Account != nil && event.Account.ID != uuid.Nil {
		accountID = event.Account.ID.String()
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    firstNonEmpty(accountID, options.actorFallback),
		Verb:       event.Name,
		ObjectType: options.objectType,
		ObjectID:   accountID,
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event, options),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event has no account.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithoutToken leaves the token out of the metadata, for sinks that
// should never see credentials.
func WithoutToken() Option {
	return func(opts *normalizeOptions) {
		opts.omitToken = true
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func normalizeMetadata(event persona.Event, options normalizeOptions) map[string]any {
	metadata := map[string]any{}

	if event.Account != nil {
		if event.Account.Email != "" {
			metadata[MetadataKeyEmail] = event.Account.Email
		}
		if event.Account.AccountStatus != "" {
			metadata[MetadataKeyStatus] = event.Account.AccountStatus
		}
	}

	if event.Token != "" && !options.omitToken {
		metadata[MetadataKeyToken] = event.Token
	}

	if event.OldEmail != "" {
		metadata[MetadataKeyOldEmail] = event.OldEmail
	}

	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
