package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"songshop/internal/models"
	"songshop/internal/repository"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	genreCacheKey = "genres:all"
	genreCacheTTL = 5 * time.Minute

	maxGenreTitleLen = 150
)

// NormalizeGenreTitle trims and lowercases a free-text genre name so
// "Rock " and "rock" resolve to the same row.
func NormalizeGenreTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ValidateGenreTitle checks a normalized genre title before it hits the store.
func ValidateGenreTitle(title string) error {
	return validation.Validate(title,
		validation.Required.Error("genre title is empty"),
		validation.Length(1, maxGenreTitleLen).Error("genre title is too long"),
	)
}

type GenreService struct {
	repo   repository.GenreRepository
	redis  *redis.Client
	logger *logrus.Logger
}

func NewGenreService(repo repository.GenreRepository, redisClient *redis.Client, logger *logrus.Logger) *GenreService {
	return &GenreService{repo: repo, redis: redisClient, logger: logger}
}

// GetOrCreate resolves a free-text genre name to a row, creating it when
// absent. Idempotent: a losing race against a concurrent create falls back
// to the winner's row.
func (s *GenreService) GetOrCreate(ctx context.Context, title string) (*models.Genre, error) {
	title = NormalizeGenreTitle(title)
	if err := ValidateGenreTitle(title); err != nil {
		return nil, err
	}

	genre, err := s.repo.GetByTitle(ctx, title)
	if err == nil {
		return genre, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	id, err := s.repo.Create(ctx, title)
	if errors.Is(err, repository.ErrConflict) {
		return s.repo.GetByTitle(ctx, title)
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	s.logger.WithField("genre", title).Info("Genre created")
	return &models.Genre{ID: id, Title: title}, nil
}

func (s *GenreService) GetByTitle(ctx context.Context, title string) (*models.Genre, error) {
	return s.repo.GetByTitle(ctx, NormalizeGenreTitle(title))
}

// GetAll lists every genre for keyboard rendering, served from a short
// Redis cache when possible.
func (s *GenreService) GetAll(ctx context.Context) ([]models.Genre, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, genreCacheKey).Result()
		if err == nil {
			var genres []models.Genre
			if err := json.Unmarshal([]byte(cached), &genres); err == nil {
				return genres, nil
			}
			s.logger.WithError(err).Warn("Failed to unmarshal cached genre list")
		} else if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).Warn("Failed to read genre list from Redis")
		}
	}

	genres, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if raw, err := json.Marshal(genres); err == nil {
			if err := s.redis.Set(ctx, genreCacheKey, raw, genreCacheTTL).Err(); err != nil {
				s.logger.WithError(err).Warn("Failed to cache genre list")
			}
		}
	}
	return genres, nil
}

func (s *GenreService) invalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, genreCacheKey).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate genre cache")
	}
}

// SplitGenreInput parses a comma-separated genre submission into
// normalized titles. Duplicates are kept as entered. An error is returned
// when the list is empty or exceeds the cap.
func SplitGenreInput(input string, maxEntries int) ([]string, error) {
	var titles []string
	for _, part := range strings.Split(input, ",") {
		title := NormalizeGenreTitle(part)
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("at least one genre is required")
	}
	if len(titles) > maxEntries {
		return nil, fmt.Errorf("no more than %d genres allowed", maxEntries)
	}
	return titles, nil
}
