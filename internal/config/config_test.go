package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DATABASE_URL": "postgres://localhost/app",
		"BOT_TOKEN":    "123:abc",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 24*time.Hour, cfg.InitDataMaxAge)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnv_DevModeRefusedInProduction(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"DATABASE_URL": "postgres://localhost/app",
		"BOT_TOKEN":    "123:abc",
		"DEV_MODE":     "true",
	}))
	assert.ErrorIs(t, err, ErrDevModeInProduction)
}

func TestFromEnv_DevModeWithoutToken(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DATABASE_URL": "postgres://localhost/app",
		"APP_ENV":      "development",
		"DEV_MODE":     "1",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.DevMode)
	assert.Empty(t, cfg.BotToken)
}

func TestFromEnv_RequiredValues(t *testing.T) {
	_, err := FromEnv(env(map[string]string{"BOT_TOKEN": "x"}))
	assert.Error(t, err)

	_, err = FromEnv(env(map[string]string{"DATABASE_URL": "postgres://localhost/app"}))
	assert.Error(t, err)
}

func TestFromEnv_Parsing(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DATABASE_URL":       "postgres://localhost/app",
		"BOT_TOKEN":          "123:abc",
		"APP_ENV":            "Development",
		"INIT_DATA_MAX_AGE":  "0",
		"CACHE_TTL":          "30s",
		"REDIS_DB":           "2",
		"ADMIN_TELEGRAM_IDS": " 1, 22 ,333",
		"ALLOWED_ORIGINS":    "https://a.example, https://b.example",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction())
	assert.Zero(t, cfg.InitDataMaxAge)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []int64{1, 22, 333}, cfg.AdminTelegramIDs)
	assert.True(t, cfg.IsAdmin(22))
	assert.False(t, cfg.IsAdmin(4))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	base := map[string]string{"DATABASE_URL": "postgres://localhost/app", "BOT_TOKEN": "t"}
	for key, value := range map[string]string{
		"APP_ENV":            "staging",
		"INIT_DATA_MAX_AGE":  "soon",
		"CACHE_TTL":          "0",
		"REDIS_DB":           "-1",
		"ADMIN_TELEGRAM_IDS": "1,abc",
	} {
		m := map[string]string{}
		for k, v := range base {
			m[k] = v
		}
		m[key] = value
		_, err := FromEnv(env(m))
		assert.Error(t, err, key)
	}
}
