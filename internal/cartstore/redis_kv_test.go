package cartstore

import (
	"context"
	"testing"
	"time"

	pkgredis "github.com/greensolartech/storefront/pkg/redis"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", pkgredis.ErrNil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func TestRedisKV(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	kv := NewRedisKV(fake, 24*time.Hour)

	_, ok, err := kv.Get(ctx, "gst:cart:s1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Set(ctx, "gst:cart:s1", "[]"))
	require.Equal(t, 24*time.Hour, fake.ttls["gst:cart:s1"])

	v, ok, err := kv.Get(ctx, "gst:cart:s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", v)

	require.NoError(t, kv.Del(ctx, "gst:cart:s1"))
	_, ok, err = kv.Get(ctx, "gst:cart:s1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisBackedStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewRedisKV(newFakeRedis(), 0), Namespace("gst"), nil, nil)
	a := store.ForSession("s1")
	require.NoError(t, a.Save(ctx, sampleItems()))
	assertSameItems(t, sampleItems(), a.Load(ctx))
}
