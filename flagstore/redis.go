package flagstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

const (
	redisKeyPrefix     = "patinhas:roleflags:"
	redisFieldPersonal = "personal_active"
	redisFieldCompany  = "company_active"
	redisFieldNGO      = "ngo_active"
)

var _ auth.RoleFlags = &RedisStore{}

// RedisStore keeps the flags of one scope (a device or browser id) in a
// Redis hash.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL expires the flags after ttl of inactivity.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore returns a store for scope.
func NewRedisStore(client redis.UniversalClient, scope string, opts ...RedisOption) *RedisStore {
	if scope == "" {
		scope = "default"
	}
	s := &RedisStore{
		client: client,
		key:    redisKeyPrefix + scope,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Key returns the Redis key holding the flags.
func (s *RedisStore) Key() string {
	return s.key
}

// Activate writes all three fields inside MULTI/EXEC.
func (s *RedisStore) Activate(ctx context.Context, role auth.Role) error {
	if !role.IsValid() {
		return s.Clear(ctx)
	}

	set := auth.FlagSetFor(role)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key,
			redisFieldPersonal, encodeFlag(set.Personal),
			redisFieldCompany, encodeFlag(set.Company),
			redisFieldNGO, encodeFlag(set.NGO),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context) (auth.RoleFlagSet, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return auth.RoleFlagSet{}, fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}

	set := auth.RoleFlagSet{
		Personal: values[redisFieldPersonal] == "1",
		Company:  values[redisFieldCompany] == "1",
		NGO:      values[redisFieldNGO] == "1",
	}

	if !set.Valid() {
		return auth.RoleFlagSet{}, auth.ErrCorruptRoleFlags
	}

	return set, nil
}

func encodeFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
