package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("licity-service")
	require.NoError(t, err)

	assert.Equal(t, "licity-service", cfg.ServiceName)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "./data/documents", cfg.Storage.Dir)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CACHE_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("STORAGE_DIR", "/var/lib/licity/docs")
	t.Setenv("JWT_EXPIRATION_HOURS", "72")

	cfg, err := Load("licity-service")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "redis.internal:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "/var/lib/licity/docs", cfg.Storage.Dir)
	assert.Equal(t, 72, cfg.JWT.ExpirationHours)
}

func TestDSN(t *testing.T) {
	db := DBConfig{
		Host: "h", Port: "5432", User: "u", Password: "p",
		DBName: "licity", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=h port=5432 user=u password=p dbname=licity sslmode=disable",
		db.GetDSN())
}
