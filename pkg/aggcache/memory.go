package aggcache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	key       Key
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store indexed by organization for scoped invalidation.
type Memory struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]memoryEntry
	orgIndex map[uuid.UUID]map[string]struct{}
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]memoryEntry),
		orgIndex: make(map[uuid.UUID]map[string]struct{}),
	}
}

func (c *Memory) Get(_ context.Context, key Key) ([]byte, bool, error) {
	id := key.String()
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.expired(e) {
		c.mu.Lock()
		if cur, still := c.entries[id]; still && c.expired(cur) {
			c.removeLocked(id, cur.key.OrganizationID)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *Memory) Set(_ context.Context, key Key, value []byte) error {
	if !key.valid() {
		return nil
	}
	id := key.String()
	e := memoryEntry{key: key, value: value}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = e
	if _, ok := c.orgIndex[key.OrganizationID]; !ok {
		c.orgIndex[key.OrganizationID] = make(map[string]struct{})
	}
	c.orgIndex[key.OrganizationID][id] = struct{}{}
	return nil
}

func (c *Memory) InvalidateScope(_ context.Context, organizationID, teamID uuid.UUID) error {
	if organizationID == uuid.Nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.orgIndex[organizationID] {
		e, ok := c.entries[id]
		if !ok {
			continue
		}
		if teamID == uuid.Nil || e.key.TeamID == teamID || e.key.TeamID == uuid.Nil {
			c.removeLocked(id, organizationID)
		}
	}
	if len(c.orgIndex[organizationID]) == 0 {
		delete(c.orgIndex, organizationID)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Memory) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

func (c *Memory) removeLocked(id string, organizationID uuid.UUID) {
	delete(c.entries, id)
	if idx, ok := c.orgIndex[organizationID]; ok {
		delete(idx, id)
	}
}
