package limiter

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps failure counters and lockouts in Redis keys that expire on their own.
type Redis struct {
	rdb      redis.Cmdable
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

// NewRedis constructs a Redis-backed limiter. Parameters match NewPG.
func NewRedis(rdb redis.Cmdable, window time.Duration, maxFails int, blockFor time.Duration) *Redis {
	if maxFails <= 0 {
		maxFails = 5
	}
	return &Redis{rdb: rdb, window: window, maxFails: maxFails, blockFor: blockFor}
}

func (l *Redis) key(kind, email string, ipHash []byte) string {
	return "login:" + kind + ":" + email + ":" + hex.EncodeToString(ipHash)
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Redis) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, l.key("block", email, ipHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, 0, nil
		}
		return false, 0, err
	}
	// negative TTL means the key is missing (-2) or has no expiry (-1)
	if ttl <= 0 {
		return true, 0, nil
	}
	return false, ttl, nil
}

// Success drops the failure counter and any lockout for (email, ip).
func (l *Redis) Success(ctx context.Context, email string, ipHash []byte) error {
	return l.rdb.Del(ctx, l.key("fails", email, ipHash), l.key("block", email, ipHash)).Err()
}

// Failure counts a failed attempt within the window and blocks the pair at maxFails.
func (l *Redis) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	fk := l.key("fails", email, ipHash)
	count, err := l.rdb.Incr(ctx, fk).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 && l.window > 0 {
		if err := l.rdb.Expire(ctx, fk, l.window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count < int64(l.maxFails) {
		return false, 0, nil
	}
	pipe := l.rdb.TxPipeline()
	pipe.Set(ctx, l.key("block", email, ipHash), 1, l.blockFor)
	pipe.Del(ctx, fk)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	return true, l.blockFor, nil
}
