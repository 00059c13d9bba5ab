package pricecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Redis is the production Cache. A cold or unreachable Redis only costs
// latency: every error path reports a miss.
type Redis struct {
	client *redis.Client
}

func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &Redis{client: redis.NewClient(opts)}, nil
}

func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warnf("Redis.Get: %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		log.Warnf("Redis.Get: discarding corrupt payload for %s: %v", key, err)
		r.client.Del(ctx, key)
		return false
	}

	return true
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Warnf("Redis.Set: failed to marshal value for %s: %v", key, err)
		return
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		log.Warnf("Redis.Set: %s: %v", key, err)
	}
}

func (r *Redis) Remove(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.Warnf("Redis.Remove: %s: %v", key, err)
	}
}
