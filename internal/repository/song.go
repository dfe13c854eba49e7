package repository

import (
	"context"
	"fmt"
	"songshop/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SongRepository interface {
	Create(ctx context.Context, song *models.Song) (int, error)
	GetByID(ctx context.Context, id int) (*models.Song, error)
	GetByTitle(ctx context.Context, title string) (*models.Song, error)
	GetAll(ctx context.Context) ([]models.Song, error)
	GetByFilter(ctx context.Context, songType *models.SongType, tempo *models.SongTempo, genreIDs []int) ([]models.Song, error)
	Update(ctx context.Context, song *models.Song) error
	Delete(ctx context.Context, id int) error
	AddGenre(ctx context.Context, songID, genreID int) error
	RemoveGenre(ctx context.Context, songID, genreID int) error
}

type songRepository struct {
	db *pgxpool.Pool
}

func NewSongRepository(db *pgxpool.Pool) SongRepository {
	return &songRepository{db: db}
}

func (r *songRepository) Create(ctx context.Context, song *models.Song) (int, error) {
	query := `
	INSERT INTO songs (author_id, title, lyrics, file_id, file_type, type, tempo)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id
	`

	var id int
	err := r.db.QueryRow(ctx, query,
		song.AuthorID, song.Title, song.Lyrics, song.FileID, song.FileType, song.Type, song.Tempo,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create song: %w", mapError(err))
	}
	return id, nil
}

func (r *songRepository) GetByID(ctx context.Context, id int) (*models.Song, error) {
	query := `
	SELECT id, author_id, title, lyrics, file_id, file_type, type, tempo
	FROM songs
	WHERE id = $1
	`

	song := &models.Song{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&song.ID, &song.AuthorID, &song.Title, &song.Lyrics,
		&song.FileID, &song.FileType, &song.Type, &song.Tempo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get song %d: %w", id, mapError(err))
	}

	if err := r.loadGenres(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

func (r *songRepository) GetByTitle(ctx context.Context, title string) (*models.Song, error) {
	query := `
	SELECT id, author_id, title, lyrics, file_id, file_type, type, tempo
	FROM songs
	WHERE title = $1
	`

	song := &models.Song{}
	err := r.db.QueryRow(ctx, query, title).Scan(
		&song.ID, &song.AuthorID, &song.Title, &song.Lyrics,
		&song.FileID, &song.FileType, &song.Type, &song.Tempo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get song %q: %w", title, mapError(err))
	}

	if err := r.loadGenres(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

func (r *songRepository) GetAll(ctx context.Context) ([]models.Song, error) {
	query := `
	SELECT id, author_id, title, lyrics, file_id, file_type, type, tempo
	FROM songs
	ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var song models.Song
		err := rows.Scan(
			&song.ID, &song.AuthorID, &song.Title, &song.Lyrics,
			&song.FileID, &song.FileType, &song.Type, &song.Tempo,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// GetByFilter applies each present criterion as an AND predicate; a
// non-empty genreIDs list matches songs carrying at least one of them.
// Rows come back distinct in ascending id order.
func (r *songRepository) GetByFilter(ctx context.Context, songType *models.SongType, tempo *models.SongTempo, genreIDs []int) ([]models.Song, error) {
	query := `
	SELECT DISTINCT s.id, s.author_id, s.title, s.lyrics, s.file_id, s.file_type, s.type, s.tempo
	FROM songs s
	`
	args := []any{}

	if len(genreIDs) > 0 {
		query += " JOIN genre_to_song gts ON gts.song_id = s.id"
	}

	where := " WHERE 1=1"
	if songType != nil {
		args = append(args, *songType)
		where += fmt.Sprintf(" AND s.type = $%d", len(args))
	}
	if tempo != nil {
		args = append(args, *tempo)
		where += fmt.Sprintf(" AND s.tempo = $%d", len(args))
	}
	if len(genreIDs) > 0 {
		args = append(args, genreIDs)
		where += fmt.Sprintf(" AND gts.genre_id = ANY($%d)", len(args))
	}

	query += where + " ORDER BY s.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var song models.Song
		err := rows.Scan(
			&song.ID, &song.AuthorID, &song.Title, &song.Lyrics,
			&song.FileID, &song.FileType, &song.Type, &song.Tempo,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func (r *songRepository) Update(ctx context.Context, song *models.Song) error {
	query := `
	UPDATE songs
	SET title = $2, lyrics = $3, file_id = $4, file_type = $5, type = $6, tempo = $7
	WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		song.ID, song.Title, song.Lyrics, song.FileID, song.FileType, song.Type, song.Tempo,
	)
	if err != nil {
		return fmt.Errorf("failed to update song %d: %w", song.ID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update song %d: %w", song.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the song; genre associations and wishlist entries go
// with it via ON DELETE CASCADE.
func (r *songRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM songs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete song %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete song %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *songRepository) AddGenre(ctx context.Context, songID, genreID int) error {
	query := `
	INSERT INTO genre_to_song (genre_id, song_id)
	VALUES ($1, $2)
	ON CONFLICT DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, genreID, songID); err != nil {
		return fmt.Errorf("failed to attach genre %d to song %d: %w", genreID, songID, err)
	}
	return nil
}

func (r *songRepository) RemoveGenre(ctx context.Context, songID, genreID int) error {
	query := "DELETE FROM genre_to_song WHERE genre_id = $1 AND song_id = $2"

	if _, err := r.db.Exec(ctx, query, genreID, songID); err != nil {
		return fmt.Errorf("failed to detach genre %d from song %d: %w", genreID, songID, err)
	}
	return nil
}

func (r *songRepository) loadGenres(ctx context.Context, song *models.Song) error {
	query := `
	SELECT g.id, g.title
	FROM genres g
	JOIN genre_to_song gts ON gts.genre_id = g.id
	WHERE gts.song_id = $1
	ORDER BY g.id
	`

	rows, err := r.db.Query(ctx, query, song.ID)
	if err != nil {
		return fmt.Errorf("failed to load genres for song %d: %w", song.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var genre models.Genre
		if err := rows.Scan(&genre.ID, &genre.Title); err != nil {
			return fmt.Errorf("failed to scan genre row: %w", err)
		}
		song.Genres = append(song.Genres, genre)
	}
	return rows.Err()
}
