package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"learning_webapp/internal/domain"
	"learning_webapp/internal/http/middleware"
	"learning_webapp/internal/logger"
	"learning_webapp/internal/repository"
	"learning_webapp/internal/service"
	"learning_webapp/internal/telegram"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Users *service.UserService
}

func NewHandler(users *service.UserService) *Handler {
	return &Handler{Users: users}
}

// identity returns the caller verified by middleware.TelegramAuth.
func identity(c *gin.Context) (telegram.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "telegram identity missing"})
		return telegram.Identity{}, false
	}
	return id, true
}

func telegramIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return 0, false
	}
	return id, true
}

// writeError maps service and storage errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domain.ErrInvalidPatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
