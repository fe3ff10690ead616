package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"
)

const messageField = "b64_news"

// RedisPublisher implements Publisher over a Redis stream
type RedisPublisher struct {
	client *redis.Client
	ctx    context.Context
	stream string
	maxLen int64
}

// NewRedisPublisher creates a new Redis publisher. maxLen bounds the
// stream length approximately; zero disables trimming.
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string, maxLen int64) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client: client,
		ctx:    ctx,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish appends a base64-encoded message to the stream
func (p *RedisPublisher) Publish(message []byte) error {
	encoded := base64.StdEncoding.EncodeToString(message)

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			messageField: encoded,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	return p.client.XAdd(p.ctx, args).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
