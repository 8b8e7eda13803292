package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"learning_webapp/internal/logger"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

var ErrDevModeInProduction = errors.New("DEV_MODE cannot be enabled when APP_ENV=production")

type Config struct {
	AppPort     string
	AppEnv      string
	DatabaseURL string

	// BotToken signs init data. Never log it.
	BotToken string
	// DevMode accepts unsigned init data. Refused in production.
	DevMode        bool
	InitDataMaxAge time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AdminTelegramIDs []int64
	AllowedOrigins   []string

	LogLevel       string
	LogJSON        bool
	MigrationsAuto bool
}

// IsProduction reports whether the service runs in a deployed environment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// IsAdmin reports whether telegramID is listed in ADMIN_TELEGRAM_IDS.
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminTelegramIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// Load reads .env (if present) and the process environment. Invalid
// configuration stops the process.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppPort:        getenv("APP_PORT"),
		AppEnv:         strings.ToLower(strings.TrimSpace(getenv("APP_ENV"))),
		DatabaseURL:    getenv("DATABASE_URL"),
		BotToken:       strings.TrimSpace(getenv("BOT_TOKEN")),
		DevMode:        parseBool(getenv("DEV_MODE")),
		InitDataMaxAge: 24 * time.Hour,
		RedisAddr:      getenv("REDIS_ADDR"),
		RedisPassword:  getenv("REDIS_PASSWORD"),
		CacheTTL:       5 * time.Minute,
		LogLevel:       getenv("LOG_LEVEL"),
		LogJSON:        parseBool(getenv("LOG_JSON")),
		MigrationsAuto: parseBool(getenv("MIGRATIONS_AUTO")),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS")),
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = EnvProduction
	}
	if cfg.AppEnv != EnvProduction && cfg.AppEnv != EnvDevelopment {
		return nil, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvProduction, EnvDevelopment, cfg.AppEnv)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.DevMode && cfg.IsProduction() {
		return nil, ErrDevModeInProduction
	}
	if cfg.BotToken == "" && !cfg.DevMode {
		return nil, errors.New("BOT_TOKEN is not set")
	}

	if v := getenv("INIT_DATA_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("INIT_DATA_MAX_AGE: invalid duration %q", v)
		}
		cfg.InitDataMaxAge = d
	}
	if v := getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("CACHE_TTL: invalid duration %q", v)
		}
		cfg.CacheTTL = d
	}
	if v := getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("REDIS_DB: invalid index %q", v)
		}
		cfg.RedisDB = n
	}

	// comma separated telegram ids
	for _, idStr := range splitList(getenv("ADMIN_TELEGRAM_IDS")) {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS: invalid id %q", idStr)
		}
		cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
	}

	return cfg, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
