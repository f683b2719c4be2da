package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./data/skinchanger.db", cfg.Database.Path)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.True(t, cfg.App.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "skins")
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_PASS", "hunter2")
	t.Setenv("CACHE_TYPE", "redis")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "svc:hunter2@tcp(db.internal:3306)/skins?parseTime=true&clientFoundRows=true", cfg.Database.MySQLDSN())
	assert.Equal(t, "cache.internal:6379", cfg.Cache.RedisAddress())
	assert.True(t, cfg.App.IsProduction())
}
