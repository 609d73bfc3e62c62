package cache

import (
	"strings"
	"time"

	"licity-service/pkg/config"
)

// Cache is a byte-oriented key/value cache with per-entry TTL.
type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}

// Open creates a cache backend from configuration.
// Unknown backends fall back to memory.
func Open(cfg *config.CacheConfig) Cache {
	switch strings.ToLower(cfg.Backend) {
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisDB)
	default:
		return NewMemory(cfg.TTL)
	}
}
