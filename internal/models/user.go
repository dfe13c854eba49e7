package models

import "time"

type User struct {
	ID          string    `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	IsStaff     bool      `json:"is_staff" db:"is_staff"`
	IsSuperuser bool      `json:"is_superuser" db:"is_superuser"`
	DateJoined  time.Time `json:"date_joined" db:"date_joined"`
}

// WishlistEntry marks a song a user wants to purchase. The pair is the
// primary key, so adding the same song twice is a no-op.
type WishlistEntry struct {
	UserID string `json:"user_id" db:"user_id"`
	SongID int    `json:"song_id" db:"song_id"`
}

type HistoryAction string

const (
	ActionView   HistoryAction = "view"
	ActionLike   HistoryAction = "like"
	ActionRemove HistoryAction = "remove"
	ActionDelete HistoryAction = "delete"
)

// ViewHistory is an append-only event log entry. The song title is a
// snapshot, not a reference: it stays meaningful after the song is gone.
type ViewHistory struct {
	ID        int           `json:"id" db:"id"`
	UserID    string        `json:"user_id" db:"user_id"`
	SongTitle string        `json:"song_title" db:"song_title"`
	ViewedAt  time.Time     `json:"viewed_at" db:"viewed_at"`
	Action    HistoryAction `json:"action" db:"action"`
}
