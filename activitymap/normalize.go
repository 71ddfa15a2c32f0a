package activitymap

import (
	"context"
	"maps"
	"strings"
	"time"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

const (
	// MetadataKeyRole stores the account role the event was recorded for.
	MetadataKeyRole = "role"
)

const (
	defaultChannel    = "session"
	defaultObjectType = "principal"
	defaultActorID    = "anonymous"
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
	now           func() time.Time
}

// Normalize converts an auth.ActivityEvent into the normalized shape. Sign
// in failures and OAuth starts carry no user, so the actor falls back to
// the configured id.
func Normalize(event auth.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	userID := strings.TrimSpace(event.UserID)
	actorID := userID
	if actorID == "" {
		actorID = options.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = options.now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   userID,
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// Sink adapts fn to an auth.ActivitySink that receives normalized records.
func Sink(fn func(context.Context, Normalized) error, opts ...Option) auth.ActivitySink {
	return auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		if fn == nil {
			return nil
		}
		return fn(ctx, Normalize(event, opts...))
	})
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

// WithActorFallback sets the actor id used when the event has no user.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock sets the clock used for events without a timestamp.
func WithClock(clock func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if clock != nil {
			opts.now = clock
		}
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
}

func normalizeMetadata(event auth.ActivityEvent) map[string]any {
	var metadata map[string]any
	if len(event.Metadata) > 0 {
		metadata = maps.Clone(event.Metadata)
	}

	if event.Role.IsValid() {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[MetadataKeyRole]; !exists {
			metadata[MetadataKeyRole] = string(event.Role)
		}
	}

	return metadata
}
