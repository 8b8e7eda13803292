package http

import (
	"learning_webapp/internal/http/handlers"
	"learning_webapp/internal/http/middleware"
	"learning_webapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Version        string
	Auth           middleware.TelegramAuthConfig
	AllowedOrigins []string
}

// NewRouter wires middleware and routes around the user service.
func NewRouter(users *service.UserService, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Metrics(),
		middleware.CORS(opts.AllowedOrigins),
	)

	h := handlers.NewHandler(users)
	health := handlers.NewHealthHandler(users, opts.Version, opts.Auth.DevMode)

	r.GET("/", health.Root)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/health", health.Health)

	authed := v1.Group("")
	authed.Use(middleware.TelegramAuth(opts.Auth))
	{
		authed.GET("/me", h.Me)
		authed.POST("/users", h.CreateOrGetUser)
		authed.GET("/users", h.ListUsers)
		authed.GET("/users/:telegram_id", h.GetUser)
		authed.PATCH("/users/:telegram_id", h.UpdateUser)
	}

	return r
}
