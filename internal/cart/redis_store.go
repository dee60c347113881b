package cart

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

// KEYS[1] cart hash, ARGV[1] product id, ARGV[2] ttl seconds
var decrementScript = redis.NewScript(`
local q = tonumber(redis.call('HGET', KEYS[1], ARGV[1]))
if not q then
	return 0
end
if q < 2 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	return 0
end
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
redis.call('EXPIRE', KEYS[1], ARGV[2])
return n
`)

// RedisStore keeps one hash per session: field = product id, value = quantity.
type RedisStore struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client:  client,
		baseTTL: ttl,
	}
}

func (r *RedisStore) Lines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	fields, err := r.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(fields))
	for field, value := range fields {
		productID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad cart field %q: %w", field, err)
		}
		quantity, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("bad quantity for product %d: %w", productID, err)
		}
		if quantity < 1 {
			continue
		}
		lines = append(lines, domain.CartLine{ProductID: productID, Quantity: quantity})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (r *RedisStore) Increment(ctx context.Context, sessionID string, productID int64) error {
	if sessionID == "" {
		return ErrNoSession
	}

	key := cartKey(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, productField(productID), 1)
		pipe.Expire(ctx, key, r.ttl())
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis increment failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Decrement(ctx context.Context, sessionID string, productID int64) error {
	if sessionID == "" {
		return ErrNoSession
	}

	ttl := int64(r.ttl() / time.Second)
	err := decrementScript.Run(ctx, r.client, []string{cartKey(sessionID)}, productField(productID), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis decrement failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, sessionID string, productID int64) error {
	if sessionID == "" {
		return ErrNoSession
	}

	if err := r.client.HDel(ctx, cartKey(sessionID), productField(productID)).Err(); err != nil {
		return fmt.Errorf("redis remove failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ttl spreads expirations so abandoned carts do not expire in bursts.
func (r *RedisStore) ttl() time.Duration {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.baseTTL + jitter
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func productField(productID int64) string {
	return strconv.FormatInt(productID, 10)
}
