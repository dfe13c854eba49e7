package repository

import (
	"context"
	"fmt"
	"songshop/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type GenreRepository interface {
	Create(ctx context.Context, title string) (int, error)
	GetByID(ctx context.Context, id int) (*models.Genre, error)
	GetByTitle(ctx context.Context, title string) (*models.Genre, error)
	GetAll(ctx context.Context) ([]models.Genre, error)
}

type genreRepository struct {
	db *pgxpool.Pool
}

func NewGenreRepository(db *pgxpool.Pool) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) Create(ctx context.Context, title string) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, "INSERT INTO genres (title) VALUES ($1) RETURNING id", title).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create genre %q: %w", title, mapError(err))
	}
	return id, nil
}

func (r *genreRepository) GetByID(ctx context.Context, id int) (*models.Genre, error) {
	genre := &models.Genre{}
	err := r.db.QueryRow(ctx, "SELECT id, title FROM genres WHERE id = $1", id).
		Scan(&genre.ID, &genre.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to get genre %d: %w", id, mapError(err))
	}
	return genre, nil
}

func (r *genreRepository) GetByTitle(ctx context.Context, title string) (*models.Genre, error) {
	genre := &models.Genre{}
	err := r.db.QueryRow(ctx, "SELECT id, title FROM genres WHERE title = $1", title).
		Scan(&genre.ID, &genre.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to get genre %q: %w", title, mapError(err))
	}
	return genre, nil
}

func (r *genreRepository) GetAll(ctx context.Context) ([]models.Genre, error) {
	rows, err := r.db.Query(ctx, "SELECT id, title FROM genres ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		var genre models.Genre
		if err := rows.Scan(&genre.ID, &genre.Title); err != nil {
			return nil, fmt.Errorf("failed to scan genre row: %w", err)
		}
		genres = append(genres, genre)
	}
	return genres, rows.Err()
}
