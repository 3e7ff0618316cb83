package api

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowCounter 是固定窗口计数所需的 Redis 命令子集。
type windowCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// fixedWindow 以 "<prefix>:<subject>:<窗口起点>" 为键计数，键随窗口过期。
type fixedWindow struct {
	counter windowCounter
	prefix  string
	limit   int
	size    time.Duration
	now     func() time.Time
}

func newFixedWindow(counter windowCounter, prefix string, limit int, size time.Duration) fixedWindow {
	return fixedWindow{counter: counter, prefix: prefix, limit: limit, size: size, now: time.Now}
}

func (w fixedWindow) key(subject string) string {
	start := w.now().UTC().Truncate(w.size).Unix()
	return w.prefix + ":" + subject + ":" + strconv.FormatInt(start, 10)
}

// allow 记一次命中并报告是否仍在限额内。limit <= 0 表示不限。
func (w fixedWindow) allow(ctx context.Context, subject string) (bool, error) {
	key := w.key(subject)
	hits, err := w.counter.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if hits == 1 {
		_ = w.counter.Expire(ctx, key, w.size+time.Second).Err()
	}
	return w.limit <= 0 || hits <= int64(w.limit), nil
}
