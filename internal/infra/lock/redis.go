package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "inventory:lock:"

// 持ち主が一致するときだけ消す
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLockerが使うredisの操作（テストではfakeを渡す）
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

type RedisOptions struct {
	TTL           time.Duration
	Wait          time.Duration
	RetryInterval time.Duration
}

// RedisLocker は SETNX + TTL の分散ロック（複数インスタンス用）
type RedisLocker struct {
	client redisStore
	opts   RedisOptions
}

func NewRedisLocker(client redisStore, opts RedisOptions) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	return &RedisLocker{client: client, opts: opts}, nil
}

// REDIS_URLから作る
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	if l.opts.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Wait)
		defer cancel()
	}

	owner := uuid.NewString()
	keys = normalizeKeys(keys)
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.lockOne(ctx, keyPrefix+key, owner); err != nil {
			l.releaseAll(held, owner)
			return nil, err
		}
		held = append(held, keyPrefix+key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.releaseAll(held, owner) })
	}, nil
}

func (l *RedisLocker) lockOne(ctx context.Context, key, owner string) error {
	ticker := time.NewTicker(l.opts.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.opts.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %s: %v", ErrBusy, key, ctx.Err())
			}
			return fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrBusy, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// 解放は呼び出し元のctxが切れていても行う。失敗してもTTLで消える。
func (l *RedisLocker) releaseAll(keys []string, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		_ = l.client.Eval(ctx, releaseScript, []string{keys[i]}, owner).Err()
	}
}
