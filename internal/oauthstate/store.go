package oauthstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceStore records redeemed state nonces so a captured state cannot be
// replayed within its validity window.
type NonceStore interface {
	// Consume marks nonce as used. It returns false if the nonce was
	// already consumed.
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// MemoryNonceStore keeps consumed nonces in process memory. Suitable for a
// single-instance deployment; use the Redis store when running replicas.
type MemoryNonceStore struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	stop  chan struct{}
	done  chan struct{}
	close sync.Once
}

func NewMemoryNonceStore(cleanupInterval time.Duration) *MemoryNonceStore {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	store := &MemoryNonceStore{
		seen: make(map[string]time.Time),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go store.cleanupExpiredEntries(cleanupInterval)

	return store
}

func (s *MemoryNonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, exists := s.seen[nonce]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	s.seen[nonce] = time.Now().Add(ttl)
	return true, nil
}

func (s *MemoryNonceStore) Close() error {
	s.close.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

func (s *MemoryNonceStore) cleanupExpiredEntries(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for nonce, expiry := range s.seen {
				if now.After(expiry) {
					delete(s.seen, nonce)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RedisNonceStore backs nonce tracking with Redis so multiple backend
// replicas share the same single-use guarantee.
type RedisNonceStore struct {
	client *redis.Client
}

func NewRedisNonceStore(url string) (*RedisNonceStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisNonceStore{client: redis.NewClient(opts)}, nil
}

// Ping verifies the Redis connection is actually usable. A store built from
// a well-formed but unreachable URL would otherwise fail on first Consume.
func (s *RedisNonceStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisNonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	// SET NX is atomic across replicas: the first caller claims the nonce.
	ok, err := s.client.SetNX(ctx, "oauth_state:"+nonce, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return ok, nil
}

func (s *RedisNonceStore) Close() error {
	return s.client.Close()
}
