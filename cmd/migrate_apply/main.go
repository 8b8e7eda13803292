package main

import (
	"flag"
	"fmt"
	"os"

	"learning_webapp/internal/logger"
	"learning_webapp/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	action := flag.String("action", "up", "up, down or version")
	flag.Parse()

	runner, err := migrations.New(dsn)
	if err != nil {
		logger.Fatal("open migrations", "error", err)
	}
	defer runner.Close()

	switch *action {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "version":
		var (
			v     uint
			dirty bool
		)
		v, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
		}
	default:
		logger.Fatal("unknown action", "action", *action)
	}
	if err != nil {
		logger.Fatal("migration failed", "action", *action, "error", err)
	}
}
