// Package cache provides the externally-owned TTL cache collaborators use
// to memoize whole engine calls. The analytics engines never reference a
// cache themselves; callers wrap engine invocations with Key + Get/Set so
// the core stays pure.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a byte-value store with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Key builds a stable cache key from a function name and its arguments.
// Arguments are JSON-serialized and hashed so structurally equal inputs hit
// the same entry.
func Key(fn string, args ...interface{}) string {
	h := sha256.New()
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			b = []byte(fmt.Sprintf("%v", a))
		}
		h.Write(b)
		h.Write([]byte{0})
	}
	return fn + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// RedisCache backs the cache with Redis.
type RedisCache struct {
	client *redis.Client
}

// MemoryCache is the in-process fallback when no Redis is configured or
// reachable.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memItem
}

type memItem struct {
	val []byte
	exp time.Time
}

// New returns a Redis-backed cache when redisURL parses and responds to a
// ping, and an in-memory cache otherwise.
func New(redisURL string) Cache {
	if redisURL == "" {
		return NewMemoryCache()
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return NewMemoryCache()
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return NewMemoryCache()
	}
	return &RedisCache{client: client}
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memItem)}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !it.exp.IsZero() && time.Now().After(it.exp) {
		delete(m.items, key)
		return nil, false
	}
	return it.val, true
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.items[key] = memItem{val: val, exp: exp}
	return nil
}
