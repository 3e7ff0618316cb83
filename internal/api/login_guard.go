package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errLoginThrottled = errors.New("rate limit exceeded")
	errAccountLocked  = errors.New("account temporarily locked")
)

// loginGuard 组合两道防线：按 IP+用户名 的小时限流，以及连续失败后的账号锁定。
type loginGuard struct {
	redis     redis.UniversalClient
	attempts  fixedWindow
	threshold int
	lockTTL   time.Duration
}

func newLoginGuard(client redis.UniversalClient, perHour, threshold int, lockTTL time.Duration) *loginGuard {
	if lockTTL <= 0 {
		lockTTL = 15 * time.Minute
	}
	return &loginGuard{
		redis:     client,
		attempts:  newFixedWindow(client, "rate:login", perHour, time.Hour),
		threshold: threshold,
		lockTTL:   lockTTL,
	}
}

func lockKey(username string) string     { return "lock:login:" + username }
func failuresKey(username string) string { return "lock:login:fail:" + username }

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// admit 在校验口令前调用。Redis 不可用时放行，登录不依赖缓存可用性。
func (g *loginGuard) admit(ctx context.Context, ip, username string) error {
	name := normalizeUsername(username)
	if g.attempts.limit > 0 {
		if allowed, err := g.attempts.allow(ctx, ip+":"+name); err == nil && !allowed {
			return errLoginThrottled
		}
	}
	if n, err := g.redis.Exists(ctx, lockKey(name)).Result(); err == nil && n > 0 {
		return errAccountLocked
	}
	return nil
}

// recordFailure 累计失败次数，达到阈值时写入锁定键。
func (g *loginGuard) recordFailure(ctx context.Context, username string) error {
	name := normalizeUsername(username)
	failures, err := g.redis.Incr(ctx, failuresKey(name)).Result()
	if err != nil {
		return err
	}
	if failures == 1 {
		_ = g.redis.Expire(ctx, failuresKey(name), g.lockTTL).Err()
	}
	if g.threshold > 0 && failures >= int64(g.threshold) {
		return g.redis.Set(ctx, lockKey(name), "1", g.lockTTL).Err()
	}
	return nil
}

// reset 在登录或改密成功后清除失败计数与锁。
func (g *loginGuard) reset(ctx context.Context, username string) {
	name := normalizeUsername(username)
	_ = g.redis.Del(ctx, failuresKey(name), lockKey(name)).Err()
}
