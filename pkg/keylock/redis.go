package keylock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process talking to the same Redis. Each key is a
// SET NX entry carrying a random token and a TTL so a crashed holder cannot wedge it.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
	onLost func(key string)
}

type RedisOption func(*Redis)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.retry = d
		}
	}
}

// WithPrefix namespaces every key, e.g. "unimind:lock:".
func WithPrefix(p string) RedisOption {
	return func(r *Redis) { r.prefix = p }
}

// OnLost is called when a release finds the key already expired or taken over.
func OnLost(fn func(key string)) RedisOption {
	return func(r *Redis) { r.onLost = fn }
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "keylock:",
		ttl:    10 * time.Second,
		retry:  20 * time.Millisecond,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	release := func() {
		// release with a fresh context so a cancelled request still frees its keys
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			n, err := releaseScript.Run(rctx, r.client, []string{held[i]}, token).Int()
			if (err != nil || n == 0) && r.onLost != nil {
				r.onLost(held[i])
			}
		}
		held = held[:0]
	}

	for _, k := range keys {
		key := r.prefix + k
		if err := r.acquire(ctx, key, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("keylock: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
