package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bicho/domain/entities"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisBalanceCache caches projected balances in Redis with a TTL. Each account is a
// hash holding the balance and the newest ledger entry id the cache has seen.
type RedisBalanceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// setBalanceScript writes balance and entry unless a newer entry was already seen
var setBalanceScript = redis.NewScript(`
local seen = redis.call('HGET', KEYS[1], 'entry')
if seen and tonumber(seen) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'balance', ARGV[1], 'entry', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// invalidateBalanceScript drops the balance and raises the entry watermark
var invalidateBalanceScript = redis.NewScript(`
redis.call('HDEL', KEYS[1], 'balance')
local seen = redis.call('HGET', KEYS[1], 'entry')
if not seen or tonumber(seen) < tonumber(ARGV[1]) then
	redis.call('HSET', KEYS[1], 'entry', ARGV[1])
end
if tonumber(ARGV[2]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// NewRedisBalanceCache creates a cache over client
func NewRedisBalanceCache(client redis.Cmdable, ttl time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{client: client, ttl: ttl}
}

// ConnectRedis opens a client and checks it answers
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func balanceKey(accountID int64) string {
	return fmt.Sprintf("bicho:balance:%d", accountID)
}

// Get returns the cached balance; ok is false on a miss
func (c *RedisBalanceCache) Get(ctx context.Context, accountID int64) (entities.Cents, bool, error) {
	v, err := c.client.HGet(ctx, balanceKey(accountID), "balance").Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cached balance: %w", err)
	}
	return entities.Cents(v), true, nil
}

// Set stores the balance unless an invalidation for a later ledger entry got there first
func (c *RedisBalanceCache) Set(ctx context.Context, accountID int64, balance entities.Cents, lastEntryID int64) error {
	stored, err := setBalanceScript.Run(ctx, c.client, []string{balanceKey(accountID)},
		int64(balance), lastEntryID, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	if stored == 0 {
		log.WithFields(log.Fields{
			"accountID":   accountID,
			"lastEntryID": lastEntryID,
		}).Debug("Skipped caching a balance older than the last invalidation")
	}
	return nil
}

// Invalidate drops the cached balance and remembers lastEntryID
func (c *RedisBalanceCache) Invalidate(ctx context.Context, accountID int64, lastEntryID int64) error {
	err := invalidateBalanceScript.Run(ctx, c.client, []string{balanceKey(accountID)},
		lastEntryID, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate cached balance: %w", err)
	}
	return nil
}
