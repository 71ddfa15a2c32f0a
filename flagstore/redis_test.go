package flagstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
	"github.com/arthurcarlsonn/patinhas-e-cora-sub000/flagstore"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_ActivateAndClear(t *testing.T) {
	mr, client := newRedis(t)
	store := flagstore.NewRedisStore(client, "device-1")
	ctx := context.Background()

	assert.Equal(t, "patinhas:roleflags:device-1", store.Key())

	set, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())

	require.NoError(t, store.Activate(ctx, auth.RolePersonal))
	assert.Equal(t, "1", mr.HGet(store.Key(), "personal_active"))
	assert.Equal(t, "0", mr.HGet(store.Key(), "company_active"))
	assert.Equal(t, "0", mr.HGet(store.Key(), "ngo_active"))

	require.NoError(t, store.Activate(ctx, auth.RoleCompany))
	set, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleFlagSet{Company: true}, set)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists(store.Key()))
}

func TestRedisStore_ScopesAreIndependent(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	a := flagstore.NewRedisStore(client, "a")
	b := flagstore.NewRedisStore(client, "b")

	require.NoError(t, a.Activate(ctx, auth.RoleNGO))

	set, err := b.Get(ctx)
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := newRedis(t)
	store := flagstore.NewRedisStore(client, "device", flagstore.WithRedisTTL(time.Hour))

	require.NoError(t, store.Activate(context.Background(), auth.RolePersonal))
	assert.Equal(t, time.Hour, mr.TTL(store.Key()))

	mr.FastForward(2 * time.Hour)

	set, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
}

func TestRedisStore_Corrupt(t *testing.T) {
	mr, client := newRedis(t)
	store := flagstore.NewRedisStore(client, "device")

	mr.HSet(store.Key(), "personal_active", "1")
	mr.HSet(store.Key(), "company_active", "1")

	_, err := store.Get(context.Background())
	assert.ErrorIs(t, err, auth.ErrCorruptRoleFlags)
}

func TestRedisStore_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	store := flagstore.NewRedisStore(client, "device")

	_, err := store.Get(context.Background())
	assert.ErrorIs(t, err, auth.ErrRoleFlagsUnavailable)
}
