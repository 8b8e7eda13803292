package handlers

import (
	"net/http"
	"strconv"

	"learning_webapp/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	TelegramID int64   `json:"telegram_id" binding:"required"`
	Username   *string `json:"username"`
}

// CreateOrGetUser registers the caller on first launch and returns the
// existing profile afterwards.
func (h *Handler) CreateOrGetUser(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	user, created, err := h.Users.GetOrCreate(c.Request.Context(), caller, req.TelegramID, req.Username)
	if err != nil {
		writeError(c, err)
		return
	}

	message := "user found"
	status := http.StatusOK
	if created {
		message = "user created"
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"user":    user,
		"created": created,
	})
}

func (h *Handler) GetUser(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	tgID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	user, err := h.Users.Get(c.Request.Context(), caller, tgID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	tgID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	var patch domain.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Update(c.Request.Context(), caller, tgID, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "user updated",
		"user":    user,
	})
}

// ListUsers is the admin listing, paged with skip and limit.
func (h *Handler) ListUsers(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	users, err := h.Users.List(c.Request.Context(), caller, skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Me echoes the verified Telegram identity.
func (h *Handler) Me(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, caller)
}
