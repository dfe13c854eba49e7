package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"songshop/internal/config"
	"songshop/internal/logger"
	"songshop/internal/repository"
	"songshop/internal/services"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// grantadmin flips a user's staff flag from the command line. The user
// must have talked to the bot at least once.
func main() {
	logger.Init()
	log := logger.Get()

	username := flag.String("username", "", "username of the user to promote")
	revoke := flag.Bool("revoke", false, "revoke staff access instead of granting it")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}

	if err := godotenv.Load(".env.local"); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	ctx := context.Background()

	db, err := newDatabase(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	users := services.NewUserService(
		repository.NewUserRepository(db),
		repository.NewWishlistRepository(db),
		repository.NewHistoryRepository(db),
		log,
	)

	query := strings.TrimPrefix(*username, "@")
	user, err := users.GetByUsername(ctx, query)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Fatalf("User %s not found; they must message the bot first", query)
		}
		log.WithError(err).Fatal("Failed to look up user")
	}

	if err := users.SetStaff(ctx, user.ID, !*revoke); err != nil {
		log.WithError(err).Fatal("Failed to update role")
	}

	if *revoke {
		log.Infof("Revoked staff access for %s (id %s)", user.Username, user.ID)
	} else {
		log.Infof("Granted staff access to %s (id %s)", user.Username, user.ID)
	}
}

func newDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	host, port, user, password, databaseName := config.DatabaseConfig()

	if host == "" || port == "" || user == "" || password == "" || databaseName == "" {
		return nil, fmt.Errorf("missing required database configuration")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, databaseName)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
