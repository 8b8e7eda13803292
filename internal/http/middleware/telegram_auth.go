package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"learning_webapp/internal/logger"
	"learning_webapp/internal/telegram"

	"github.com/gin-gonic/gin"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"
	identityKey    = "telegram_identity"

	modeStrict = "strict"
	modeDev    = "dev"
)

// DebugIdentity stands in for a missing header in dev mode.
var DebugIdentity = telegram.Identity{ID: 123456789, Username: "debug_user"}

// TelegramAuthConfig selects how init data is checked. The mode is fixed
// when the middleware is built.
type TelegramAuthConfig struct {
	BotToken string
	// DevMode skips signature checks entirely. Config refuses it in
	// production.
	DevMode bool
	// MaxAge bounds auth_date in strict mode; zero disables the check.
	MaxAge time.Duration
	Now    func() time.Time
}

// TelegramAuth authenticates the request from Telegram init data and stores
// the identity in the gin context.
func TelegramAuth(cfg TelegramAuthConfig) gin.HandlerFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DevMode {
		logger.Warn("telegram init data signatures are NOT checked (DEV_MODE)")
		return devAuth()
	}
	return strictAuth(cfg)
}

func strictAuth(cfg TelegramAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := initData(c)
		if raw == "" {
			InitDataVerifications.WithLabelValues(modeStrict, "missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "telegram init data not provided"})
			return
		}

		id, err := telegram.Verify(raw, cfg.BotToken)
		if err == nil && cfg.MaxAge > 0 {
			err = telegram.CheckFreshness(id, cfg.MaxAge, cfg.Now())
		}
		if err != nil {
			InitDataVerifications.WithLabelValues(modeStrict, resultLabel(err)).Inc()
			if telegram.IsConfigError(err) {
				logger.Error("telegram auth misconfigured", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "telegram auth is not configured"})
				return
			}
			logger.Debug("telegram init data rejected", "error", err, "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram init data"})
			return
		}

		InitDataVerifications.WithLabelValues(modeStrict, "ok").Inc()
		c.Set(identityKey, id)
		c.Next()
	}
}

func devAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := initData(c)
		if raw == "" {
			InitDataVerifications.WithLabelValues(modeDev, "debug_identity").Inc()
			c.Set(identityKey, DebugIdentity)
			c.Next()
			return
		}

		id, err := telegram.ExtractUnverified(raw)
		if err != nil {
			InitDataVerifications.WithLabelValues(modeDev, resultLabel(err)).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram init data"})
			return
		}

		InitDataVerifications.WithLabelValues(modeDev, "unverified").Inc()
		logger.Warn("accepted unverified telegram identity", "telegram_id", id.ID)
		c.Set(identityKey, id)
		c.Next()
	}
}

// initData reads the header, then the query parameters the Telegram client
// uses when launching a Mini App by URL.
func initData(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(InitDataHeader)); v != "" {
		return v
	}
	if v := c.Query("init_data"); v != "" {
		return v
	}
	return c.Query("tgWebAppData")
}

// CurrentIdentity returns the identity stored by TelegramAuth.
func CurrentIdentity(c *gin.Context) (telegram.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return telegram.Identity{}, false
	}
	id, ok := v.(telegram.Identity)
	return id, ok
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, telegram.ErrMissingSignature):
		return "missing_signature"
	case errors.Is(err, telegram.ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, telegram.ErrMissingUserField):
		return "missing_user"
	case errors.Is(err, telegram.ErrMalformedUserPayload), errors.Is(err, telegram.ErrMalformedInitData):
		return "malformed"
	case errors.Is(err, telegram.ErrExpired):
		return "expired"
	case errors.Is(err, telegram.ErrEmptySecret):
		return "config_error"
	default:
		return "error"
	}
}
