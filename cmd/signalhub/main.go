package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/signalhub-dev/signalhub/db"
	"github.com/signalhub-dev/signalhub/internal/auth"
	"github.com/signalhub-dev/signalhub/internal/handlers"
	"github.com/signalhub-dev/signalhub/internal/router"
	"github.com/signalhub-dev/signalhub/internal/senders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	conn, err := db.Connect(dsn)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "signalhub")

	telegram := senders.NewTelegramClient()
	registry := senders.NewRegistry(
		senders.NewEmailSender(),
		senders.NewTelegramSender(telegram),
	)

	h := handlers.New(conn, registry, telegram, logger)
	r := router.NewRouter(conn, h)

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
