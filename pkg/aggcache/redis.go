package aggcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "aggcache:"

// Redis stores entries as plain keys with an expiry and tracks them in per-team index sets.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func entryKey(k Key) string {
	return redisPrefix + "entry:" + k.String()
}

func teamIndexKey(organizationID, teamID uuid.UUID) string {
	return fmt.Sprintf("%sidx:%s:%s", redisPrefix, organizationID, teamID)
}

func orgTeamsKey(organizationID uuid.UUID) string {
	return fmt.Sprintf("%steams:%s", redisPrefix, organizationID)
}

func (c *Redis) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("aggcache: redis get: %w", err)
	}
	return val, true, nil
}

func (c *Redis) Set(ctx context.Context, key Key, value []byte) error {
	if !key.valid() {
		return nil
	}
	idx := teamIndexKey(key.OrganizationID, key.TeamID)
	teams := orgTeamsKey(key.OrganizationID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey(key), value, c.ttl)
		pipe.SAdd(ctx, idx, entryKey(key))
		pipe.SAdd(ctx, teams, key.TeamID.String())
		if c.ttl > 0 {
			pipe.Expire(ctx, idx, c.ttl)
			pipe.Expire(ctx, teams, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("aggcache: redis set: %w", err)
	}
	return nil
}

func (c *Redis) InvalidateScope(ctx context.Context, organizationID, teamID uuid.UUID) error {
	if organizationID == uuid.Nil {
		return nil
	}
	var indexes []string
	if teamID == uuid.Nil {
		members, err := c.client.SMembers(ctx, orgTeamsKey(organizationID)).Result()
		if err != nil {
			return fmt.Errorf("aggcache: redis list teams: %w", err)
		}
		for _, m := range members {
			id, err := uuid.Parse(m)
			if err != nil {
				continue
			}
			indexes = append(indexes, teamIndexKey(organizationID, id))
		}
		indexes = append(indexes, teamIndexKey(organizationID, uuid.Nil))
	} else {
		indexes = []string{teamIndexKey(organizationID, teamID), teamIndexKey(organizationID, uuid.Nil)}
	}

	for _, idx := range indexes {
		keys, err := c.client.SMembers(ctx, idx).Result()
		if err != nil {
			return fmt.Errorf("aggcache: redis read index: %w", err)
		}
		keys = append(keys, idx)
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("aggcache: redis delete: %w", err)
		}
	}
	if teamID == uuid.Nil {
		if err := c.client.Del(ctx, orgTeamsKey(organizationID)).Err(); err != nil {
			return fmt.Errorf("aggcache: redis delete: %w", err)
		}
	}
	return nil
}
