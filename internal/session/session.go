// Package session keeps per-conversation finite-state data in Redis so a
// half-finished wizard or browse survives a process restart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type State string

const (
	StateIdle State = ""

	// Song creation wizard
	StateEnterTitle  State = "enter_title"
	StateSelectType  State = "select_type"
	StateSelectTempo State = "select_tempo"
	StateEnterGenres State = "enter_genres"
	StateEnterLyrics State = "enter_lyrics"
	StateUploadMedia State = "upload_media"
	StateConfirm     State = "confirm"

	// Song edit sub-chain
	StateEditSelectTitle State = "edit_select_title"
	StateEditSelectField State = "edit_select_field"
	StateEditTitle       State = "edit_title"
	StateEditType        State = "edit_type"
	StateEditTempo       State = "edit_tempo"
	StateEditGenres      State = "edit_genres"
	StateEditLyrics      State = "edit_lyrics"
	StateEditMedia       State = "edit_media"

	// Song deletion
	StateEnterDeleteTitle State = "enter_delete_title"
	StateConfirmDelete    State = "confirm_delete"

	// Admin history viewer
	StateEnterUsername State = "enter_username"
	StateHistoryView   State = "history_view"

	// User catalog / wishlist browsing
	StateBrowsing State = "browsing"
)

// WizardData carries the answers collected so far in the admin song
// creation/editing conversation. EditSongID is zero outside the edit chain.
type WizardData struct {
	Title      string   `json:"title,omitempty"`
	Type       string   `json:"type,omitempty"`
	Tempo      string   `json:"tempo,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Lyrics     *string  `json:"lyrics,omitempty"`
	FileID     *string  `json:"file_id,omitempty"`
	FileType   string   `json:"file_type,omitempty"`
	EditSongID int      `json:"edit_song_id,omitempty"`
}

// BrowseData is the catalog/wishlist cursor: the applied filter, the
// result-set snapshot and the current index into it. Wishlist marks the
// wishlist-browsing variant of the same machine.
type BrowseData struct {
	Type     string   `json:"type,omitempty"`
	Tempo    string   `json:"tempo,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	SongIDs  []int    `json:"song_ids,omitempty"`
	Index    int      `json:"index"`
	Wishlist bool     `json:"wishlist,omitempty"`
}

// HistoryData addresses the admin history viewer: whose history, which page.
type HistoryData struct {
	UserID string `json:"user_id"`
	Page   int    `json:"page"`
}

type Payload struct {
	Wizard  *WizardData  `json:"wizard,omitempty"`
	Browse  *BrowseData  `json:"browse,omitempty"`
	History *HistoryData `json:"history,omitempty"`
}

type Store interface {
	Get(ctx context.Context, chatID int64) (State, *Payload, error)
	Set(ctx context.Context, chatID int64, state State, payload *Payload) error
	Clear(ctx context.Context, chatID int64) error
}

type record struct {
	State   State    `json:"state"`
	Payload *Payload `json:"payload,omitempty"`
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func key(chatID int64) string {
	return fmt.Sprintf("fsm:chat:%d", chatID)
}

// Get returns StateIdle with an empty payload when no state is stored.
func (s *redisStore) Get(ctx context.Context, chatID int64) (State, *Payload, error) {
	raw, err := s.client.Get(ctx, key(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return StateIdle, &Payload{}, nil
	}
	if err != nil {
		return StateIdle, nil, fmt.Errorf("failed to read session for chat %d: %w", chatID, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return StateIdle, nil, fmt.Errorf("failed to decode session for chat %d: %w", chatID, err)
	}
	if rec.Payload == nil {
		rec.Payload = &Payload{}
	}
	return rec.State, rec.Payload, nil
}

func (s *redisStore) Set(ctx context.Context, chatID int64, state State, payload *Payload) error {
	raw, err := json.Marshal(record{State: state, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode session for chat %d: %w", chatID, err)
	}

	// No TTL: an in-flight form must outlive restarts.
	if err := s.client.Set(ctx, key(chatID), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write session for chat %d: %w", chatID, err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, key(chatID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session for chat %d: %w", chatID, err)
	}
	return nil
}
