package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/cache"
)

// Deduplicator tracks recently processed provider event IDs so redelivery
// of the same webhook (common with at-least-once providers) is acknowledged
// as a no-op instead of double-applying a transition.
type Deduplicator interface {
	// Seen reports whether the event ID was already processed.
	Seen(ctx context.Context, eventID string) (bool, error)
	// Mark records the event ID as processed. Called only after the
	// transition has been persisted, so a failed delivery stays retryable.
	Mark(ctx context.Context, eventID string) error
}

const dedupKeyPrefix = "billing:event:"

// RedisDeduplicator stores processed event IDs in Redis with a TTL, shared
// across processes.
type RedisDeduplicator struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisDeduplicator(client redis.UniversalClient, ttl time.Duration, log *slog.Logger) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, ttl: ttl, log: log}
}

func (d *RedisDeduplicator) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduplicator) Mark(ctx context.Context, eventID string) error {
	return d.client.Set(ctx, dedupKeyPrefix+eventID, 1, d.ttl).Err()
}

// MemoryDeduplicator keeps processed event IDs in a bounded TTL cache.
// Suitable for tests and single-process deployments.
type MemoryDeduplicator struct {
	seen *cache.TTLCache[string, struct{}]
}

func NewMemoryDeduplicator(capacity int, ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: cache.NewTTLCache[string, struct{}](capacity, ttl)}
}

func (d *MemoryDeduplicator) Seen(_ context.Context, eventID string) (bool, error) {
	_, ok := d.seen.Get(eventID)
	return ok, nil
}

func (d *MemoryDeduplicator) Mark(_ context.Context, eventID string) error {
	d.seen.Put(eventID, struct{}{})
	return nil
}
