package repository

import (
	"context"
	"fmt"
	"songshop/internal/models"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository interface {
	Log(ctx context.Context, userID, songTitle string, action models.HistoryAction) (int, error)
	GetByUser(ctx context.Context, userID string) ([]models.ViewHistory, error)
}

type historyRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Log(ctx context.Context, userID, songTitle string, action models.HistoryAction) (int, error) {
	query := `
	INSERT INTO view_history (user_id, song_title, viewed_at, action)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`

	var id int
	err := r.db.QueryRow(ctx, query, userID, songTitle, time.Now(), action).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to log %s of %q for %s: %w", action, songTitle, userID, err)
	}
	return id, nil
}

// GetByUser returns the full history newest-first; callers page over it.
func (r *historyRepository) GetByUser(ctx context.Context, userID string) ([]models.ViewHistory, error) {
	query := `
	SELECT id, user_id, song_title, viewed_at, action
	FROM view_history
	WHERE user_id = $1
	ORDER BY viewed_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history of %s: %w", userID, err)
	}
	defer rows.Close()

	var records []models.ViewHistory
	for rows.Next() {
		var record models.ViewHistory
		err := rows.Scan(&record.ID, &record.UserID, &record.SongTitle, &record.ViewedAt, &record.Action)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
