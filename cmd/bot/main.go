package main

import (
	"context"
	"net/http"
	"os"
	"songshop/internal/container"
	"songshop/internal/handlers"
	"songshop/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	log := logger.Get()

	err := godotenv.Load(".env.local")
	if err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal("BOT_TOKEN is required. Set it in .env file or as environment variable")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	c, err := container.New(ctx, botToken)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer c.Close()

	if err := c.Telegram.SetBotCommands(ctx); err != nil {
		log.WithError(err).Warn("Failed to publish bot command menu")
	}

	http.HandleFunc("/webhook", handlers.WebhookHandler(c))

	log.Infof("Bot starting on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
