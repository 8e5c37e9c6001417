package aggcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is a TTL-bounded cache of serialized aggregates.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Set(ctx context.Context, key Key, value []byte) error
	// InvalidateScope evicts every entry of the organization when teamID is uuid.Nil.
	// Otherwise it evicts the team's entries and the organization-wide ones.
	InvalidateScope(ctx context.Context, organizationID, teamID uuid.UUID) error
}

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDisabled = "disabled"
)

type Options struct {
	Backend  string
	TTL      time.Duration
	RedisURL string
}

// New builds the store selected by opts.Backend.
func New(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemory(opts.TTL), nil
	case BackendRedis:
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("aggcache: invalid redis url: %w", err)
		}
		return NewRedis(redis.NewClient(redisOpts), opts.TTL), nil
	case BackendDisabled:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("aggcache: unknown backend %q", opts.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, Key) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, Key, []byte) error { return nil }
func (Nop) InvalidateScope(context.Context, uuid.UUID, uuid.UUID) error { return nil }
