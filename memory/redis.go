package memory

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisKey = "xposter:recent_posts"
	// defaultRedisCap bounds the list; only the tail is ever read.
	defaultRedisCap = 100
)

// RedisLog keeps the history in a capped Redis list, newest at the head.
type RedisLog struct {
	client *redis.Client
	key    string
	limit  int64
}

// NewRedisLog connects using a redis:// URL, falling back to a bare address.
func NewRedisLog(ctx context.Context, redisURL, key string) (*RedisLog, error) {
	if redisURL == "" {
		return nil, errors.New("redis url is required")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLog{client: client, key: key, limit: defaultRedisCap}, nil
}

func (r *RedisLog) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	newestFirst, err := r.client.LRange(ctx, r.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(newestFirst))
	for i, s := range newestFirst {
		out[len(newestFirst)-1-i] = s
	}
	return out, nil
}

func (r *RedisLog) Append(ctx context.Context, text string) error {
	line := flatten(text)
	if line == "" {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, line)
		pipe.LTrim(ctx, r.key, 0, r.limit-1)
		return nil
	})
	return err
}

func (r *RedisLog) Close() error {
	return r.client.Close()
}
