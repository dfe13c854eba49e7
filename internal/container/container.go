package container

import (
	"context"
	"fmt"
	"songshop/internal/config"
	"songshop/internal/logger"
	"songshop/internal/repository"
	"songshop/internal/services"
	"songshop/internal/session"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Logger   *logrus.Logger
	Sessions session.Store
	Telegram *services.TelegramClient

	SongService  *services.SongService
	GenreService *services.GenreService
	UserService  *services.UserService
}

func New(ctx context.Context, botToken string) (*Container, error) {
	log := logger.Get()

	db, err := newDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := newRedis(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	genreService := services.NewGenreService(repository.NewGenreRepository(db), redisClient, log)

	return &Container{
		DB:       db,
		Redis:    redisClient,
		Logger:   log,
		Sessions: session.NewRedisStore(redisClient),
		Telegram: services.NewTelegramClient(botToken, log),

		SongService:  services.NewSongService(repository.NewSongRepository(db), genreService, log),
		GenreService: genreService,
		UserService: services.NewUserService(
			repository.NewUserRepository(db),
			repository.NewWishlistRepository(db),
			repository.NewHistoryRepository(db),
			log,
		),
	}, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}

func newDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	host, port, user, password, databaseName := config.DatabaseConfig()

	if host == "" || port == "" || user == "" || password == "" || databaseName == "" {
		return nil, fmt.Errorf("missing required database configuration")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, databaseName)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("Database connection successful")
	return pool, nil
}

func newRedis(ctx context.Context) (*redis.Client, error) {
	host, port, password := config.RedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Get().Info("Redis connection successful")
	return client, nil
}
