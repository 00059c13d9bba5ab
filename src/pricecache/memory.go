package pricecache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// Memory is a process-local Cache for single-instance deployments and tests.
// Values are stored serialized so hit/miss behavior matches the Redis
// implementation, corrupt-payload handling included.
type Memory struct {
	cache *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (m *Memory) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, found := m.cache.Get(key)
	if !found {
		return false
	}

	payload, ok := raw.([]byte)
	if !ok {
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		log.Warnf("Memory.Get: discarding corrupt payload for %s: %v", key, err)
		m.cache.Delete(key)
		return false
	}

	return true
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Warnf("Memory.Set: failed to marshal value for %s: %v", key, err)
		return
	}

	m.cache.Set(key, payload, ttl)
}

func (m *Memory) Remove(ctx context.Context, key string) {
	m.cache.Delete(key)
}
