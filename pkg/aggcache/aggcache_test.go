package aggcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
)

type scopeKeys struct {
	org, teamA, teamB uuid.UUID
	boss, inA, inB    Key
	otherOrg          Key
}

func newScopeKeys() scopeKeys {
	s := scopeKeys{org: uuid.New(), teamA: uuid.New(), teamB: uuid.New()}
	s.boss = KeyFor("tasks.stats", hierarchy.Principal{ID: uuid.New(), OrganizationID: s.org, Role: hierarchy.RoleSuperAdmin})
	s.inA = KeyFor("tasks.stats", hierarchy.Principal{ID: uuid.New(), OrganizationID: s.org, TeamID: s.teamA, Role: hierarchy.RoleManager})
	s.inB = KeyFor("tasks.stats", hierarchy.Principal{ID: uuid.New(), OrganizationID: s.org, TeamID: s.teamB, Role: hierarchy.RoleEmployee})
	s.otherOrg = KeyFor("tasks.stats", hierarchy.Principal{ID: uuid.New(), OrganizationID: uuid.New(), TeamID: s.teamA, Role: hierarchy.RoleTeamAdmin})
	return s
}

func fill(t *testing.T, store Store, keys ...Key) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, store.Set(context.Background(), k, []byte(`"`+k.PrincipalID.String()+`"`)))
	}
}

func present(t *testing.T, store Store, k Key) bool {
	t.Helper()
	_, ok, err := store.Get(context.Background(), k)
	require.NoError(t, err)
	return ok
}

func TestKeyFor(t *testing.T) {
	org := uuid.New()
	boss := hierarchy.Principal{ID: uuid.New(), OrganizationID: org, TeamID: uuid.New(), Role: hierarchy.RoleSuperAdmin}
	assert.Equal(t, uuid.Nil, KeyFor("x", boss).TeamID)

	a := hierarchy.Principal{ID: uuid.New(), OrganizationID: org, TeamID: uuid.New(), Role: hierarchy.RoleManager}
	b := a
	b.ID = uuid.New()
	assert.NotEqual(t, KeyFor("x", a).String(), KeyFor("x", b).String())
	assert.NotEqual(t, KeyFor("x", a).String(), KeyFor("y", a).String())
}

func TestMemoryInvalidateScope(t *testing.T) {
	ctx := context.Background()

	t.Run("team scope keeps other teams", func(t *testing.T) {
		s := newScopeKeys()
		store := NewMemory(time.Minute)
		fill(t, store, s.boss, s.inA, s.inB, s.otherOrg)

		require.NoError(t, store.InvalidateScope(ctx, s.org, s.teamA))
		assert.False(t, present(t, store, s.inA))
		assert.False(t, present(t, store, s.boss), "organization-wide aggregates include every team")
		assert.True(t, present(t, store, s.inB))
		assert.True(t, present(t, store, s.otherOrg))
	})

	t.Run("organization scope", func(t *testing.T) {
		s := newScopeKeys()
		store := NewMemory(time.Minute)
		fill(t, store, s.boss, s.inA, s.inB, s.otherOrg)

		require.NoError(t, store.InvalidateScope(ctx, s.org, uuid.Nil))
		assert.False(t, present(t, store, s.boss))
		assert.False(t, present(t, store, s.inA))
		assert.False(t, present(t, store, s.inB))
		assert.True(t, present(t, store, s.otherOrg))
		assert.Equal(t, 1, store.Len())
	})
}

func TestMemoryTTL(t *testing.T) {
	s := newScopeKeys()
	store := NewMemory(time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	fill(t, store, s.inA)
	assert.True(t, present(t, store, s.inA))

	clock = clock.Add(61 * time.Second)
	assert.False(t, present(t, store, s.inA))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryIgnoresIncompleteKeys(t *testing.T) {
	store := NewMemory(time.Minute)
	require.NoError(t, store.Set(context.Background(), Key{Endpoint: "x"}, []byte("1")))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	s := newScopeKeys()
	store := NewMemory(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := s.inA
			k.Endpoint = fmt.Sprintf("e%d", i%4)
			for j := 0; j < 100; j++ {
				_ = store.Set(ctx, k, []byte("1"))
				_, _, _ = store.Get(ctx, k)
				if j%10 == 0 {
					_ = store.InvalidateScope(ctx, s.org, s.teamA)
				}
			}
		}(i)
	}
	wg.Wait()
}

type failingStore struct{ sets int }

func (f *failingStore) Get(context.Context, Key) ([]byte, bool, error) {
	return nil, false, errors.New("unreachable")
}

func (f *failingStore) Set(context.Context, Key, []byte) error {
	f.sets++
	return errors.New("unreachable")
}

func (f *failingStore) InvalidateScope(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stats struct {
	Open int `json:"open"`
	Done int `json:"done"`
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	s := newScopeKeys()

	t.Run("loads once then hits", func(t *testing.T) {
		store := NewMemory(time.Minute)
		calls := 0
		load := func(context.Context) (stats, error) {
			calls++
			return stats{Open: 3, Done: 1}, nil
		}
		for i := 0; i < 3; i++ {
			v, err := Remember(ctx, store, nil, s.inA, load)
			require.NoError(t, err)
			assert.Equal(t, stats{Open: 3, Done: 1}, v)
		}
		assert.Equal(t, 1, calls)

		require.NoError(t, store.InvalidateScope(ctx, s.org, s.teamA))
		_, err := Remember(ctx, store, nil, s.inA, load)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("answers are identical with the cache disabled or failing", func(t *testing.T) {
		load := func(context.Context) (stats, error) { return stats{Open: 7}, nil }
		for _, store := range []Store{Nop{}, &failingStore{}, nil} {
			v, err := Remember(ctx, store, nil, s.inB, load)
			require.NoError(t, err)
			assert.Equal(t, stats{Open: 7}, v)
		}
	})

	t.Run("load errors are returned and not cached", func(t *testing.T) {
		store := NewMemory(time.Minute)
		_, err := Remember(ctx, store, nil, s.boss, func(context.Context) (stats, error) {
			return stats{}, errors.New("db down")
		})
		require.Error(t, err)
		assert.Equal(t, 0, store.Len())
	})
}

func TestRememberMetricLabelsIgnoreFilters(t *testing.T) {
	store := NewMemory(time.Minute)
	p := hierarchy.Principal{ID: uuid.New(), OrganizationID: uuid.New(), TeamID: uuid.New(), Role: hierarchy.RoleManager}
	before := testutil.CollectAndCount(cacheRequests)

	for i := 0; i < 5; i++ {
		key := KeyFor(fmt.Sprintf("tasks.filtered?assigned_to=%s", uuid.New()), p)
		assert.Equal(t, "tasks.filtered", key.Name())
		_, err := Remember(context.Background(), store, nil, key, func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}

	assert.Equal(t, before+1, testutil.CollectAndCount(cacheRequests), "one series per endpoint name and result")
	assert.Equal(t, float64(5), testutil.ToFloat64(cacheRequests.WithLabelValues("tasks.filtered", "miss")))
}

func TestNew(t *testing.T) {
	st, err := New(Options{Backend: "memory", TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = New(Options{Backend: "disabled"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, st)

	st, err = New(Options{Backend: "redis", RedisURL: "redis://localhost:6379/0", TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, st)

	_, err = New(Options{Backend: "memcached"})
	require.Error(t, err)
}

func TestRedisInvalidateScope(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	s := newScopeKeys()
	store := NewRedis(client, time.Minute)
	fill(t, store, s.boss, s.inA, s.inB, s.otherOrg)

	require.NoError(t, store.InvalidateScope(ctx, s.org, s.teamA))
	assert.False(t, present(t, store, s.inA))
	assert.False(t, present(t, store, s.boss))
	assert.True(t, present(t, store, s.inB))

	require.NoError(t, store.InvalidateScope(ctx, s.org, uuid.Nil))
	assert.False(t, present(t, store, s.inB))
	assert.True(t, present(t, store, s.otherOrg))
	require.NoError(t, store.InvalidateScope(ctx, s.otherOrg.OrganizationID, uuid.Nil))
}
