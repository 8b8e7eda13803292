package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"learning_webapp/internal/db"
	"learning_webapp/internal/domain"
	"learning_webapp/internal/logger"
	"learning_webapp/internal/repository"
	"learning_webapp/internal/telegram"

	"github.com/joho/godotenv"
)

// Seeds a profile and prints an X-Telegram-Init-Data value signed for it,
// usable against a server running with the same BOT_TOKEN.
func main() {
	_ = godotenv.Load()

	tgID := flag.Int64("id", 1234567890, "telegram user id")
	username := flag.String("username", "testuser", "telegram username")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" || botToken == telegram.PlaceholderBotToken {
		logger.Fatal("BOT_TOKEN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("connect db", "error", err)
	}
	defer pool.Close()

	repo := repository.NewUserRepository(pool)

	u, err := repo.FindByTelegramID(ctx, *tgID)
	switch {
	case err == nil:
		logger.Info("user already exists", "id", u.ID, "telegram_id", u.TelegramID)
	case errors.Is(err, repository.ErrUserNotFound):
		u = &domain.User{TelegramID: *tgID, Username: username}
		if err := repo.Create(ctx, u); err != nil {
			logger.Fatal("create user failed", "error", err)
		}
		logger.Info("user created", "id", u.ID, "telegram_id", u.TelegramID)
	default:
		logger.Fatal("get by telegram id failed", "error", err)
	}

	initData, err := telegram.SignIdentity(telegram.Identity{
		ID:        u.TelegramID,
		FirstName: "Tester",
		Username:  *username,
	}, botToken, time.Now())
	if err != nil {
		logger.Fatal("sign init data", "error", err)
	}

	fmt.Println(initData)
}
