package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WishlistRepository interface {
	Add(ctx context.Context, userID string, songID int) error
	Remove(ctx context.Context, userID string, songID int) error
	GetSongIDs(ctx context.Context, userID string) ([]int, error)
}

type wishlistRepository struct {
	db *pgxpool.Pool
}

func NewWishlistRepository(db *pgxpool.Pool) WishlistRepository {
	return &wishlistRepository{db: db}
}

// Add is idempotent: a duplicate (user, song) pair is swallowed by the
// primary-key conflict clause.
func (r *wishlistRepository) Add(ctx context.Context, userID string, songID int) error {
	query := `
	INSERT INTO wishlist (user_id, song_id)
	VALUES ($1, $2)
	ON CONFLICT DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, userID, songID); err != nil {
		return fmt.Errorf("failed to add song %d to wishlist of %s: %w", songID, userID, err)
	}
	return nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID string, songID int) error {
	query := "DELETE FROM wishlist WHERE user_id = $1 AND song_id = $2"

	if _, err := r.db.Exec(ctx, query, userID, songID); err != nil {
		return fmt.Errorf("failed to remove song %d from wishlist of %s: %w", songID, userID, err)
	}
	return nil
}

func (r *wishlistRepository) GetSongIDs(ctx context.Context, userID string) ([]int, error) {
	query := "SELECT song_id FROM wishlist WHERE user_id = $1 ORDER BY song_id"

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist of %s: %w", userID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
