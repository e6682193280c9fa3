package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// IdempotencyStore retains the result of a mutating call keyed by a
// client-supplied idempotency key, so a timed-out client can resubmit
// the identical request and get the prior result without a duplicate
// history entry.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (*domain.Ticket, bool, error)
	Record(ctx context.Context, key string, ticket *domain.Ticket) error
}

const idempotencyKeyPrefix = "grievance:idem:"

// RedisIdempotencyStore keeps results in Redis with a TTL.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore builds a Redis-backed store.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (*domain.Ticket, bool, error) {
	raw, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ticket domain.Ticket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil, false, err
	}
	return &ticket, true, nil
}

func (s *RedisIdempotencyStore) Record(ctx context.Context, key string, ticket *domain.Ticket) error {
	raw, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, idempotencyKeyPrefix+key, raw, s.ttl).Err()
}

// MemoryIdempotencyStore is the fallback when Redis is not configured.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	results map[string]memoryIdemEntry
}

type memoryIdemEntry struct {
	ticket    *domain.Ticket
	expiresAt time.Time
}

// NewMemoryIdempotencyStore builds the in-memory fallback.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		ttl:     ttl,
		results: make(map[string]memoryIdemEntry),
	}
}

func (s *MemoryIdempotencyStore) Lookup(ctx context.Context, key string) (*domain.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.results[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.results, key)
		return nil, false, nil
	}
	return entry.ticket.Clone(), true, nil
}

func (s *MemoryIdempotencyStore) Record(ctx context.Context, key string, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[key] = memoryIdemEntry{
		ticket:    ticket.Clone(),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}
