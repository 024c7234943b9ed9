package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a Redis cache-aside layer in front of appointment lookups.
// Join validation hits FindByID on every connect/reconnect, so the hot
// read is served from Redis and invalidated on status changes.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits   uint64
	misses uint64
	errors uint64
}

// NewCache creates a new appointment cache.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves a cached appointment. The boolean reports a cache hit.
func (c *Cache) Get(ctx context.Context, id string) (*Appointment, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			atomic.AddUint64(&c.misses, 1)
			return nil, false, nil
		}
		atomic.AddUint64(&c.errors, 1)
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var appt Appointment
	if err := json.Unmarshal(data, &appt); err != nil {
		atomic.AddUint64(&c.errors, 1)
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.hits, 1)
	return &appt, true, nil
}

// Set stores an appointment with the configured TTL.
func (c *Cache) Set(ctx context.Context, appt *Appointment) error {
	data, err := json.Marshal(appt)
	if err != nil {
		atomic.AddUint64(&c.errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+appt.ID, data, c.ttl).Err(); err != nil {
		atomic.AddUint64(&c.errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Invalidate drops a cached appointment after a status change.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		atomic.AddUint64(&c.errors, 1)
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Stats returns hit/miss/error counters.
func (c *Cache) Stats() map[string]uint64 {
	return map[string]uint64{
		"hits":   atomic.LoadUint64(&c.hits),
		"misses": atomic.LoadUint64(&c.misses),
		"errors": atomic.LoadUint64(&c.errors),
	}
}
