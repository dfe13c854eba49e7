package services

import (
	"context"
	"songshop/internal/models"
	"songshop/internal/repository"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

const maxSongTitleLen = 150

// ValidateSongTitle checks a song title before creation or rename.
func ValidateSongTitle(title string) error {
	return validation.Validate(title,
		validation.Required.Error("title is empty"),
		validation.Length(1, maxSongTitleLen).Error("title is too long"),
	)
}

// SongFilter narrows the catalog. Nil type/tempo are wildcards; a
// non-empty genre list matches songs with at least one of them.
type SongFilter struct {
	Type        *models.SongType
	Tempo       *models.SongTempo
	GenreTitles []string
}

type SongService struct {
	repo   repository.SongRepository
	genres *GenreService
	logger *logrus.Logger
}

func NewSongService(repo repository.SongRepository, genres *GenreService, logger *logrus.Logger) *SongService {
	return &SongService{repo: repo, genres: genres, logger: logger}
}

// CreateWithGenres commits a completed wizard form: creates the song, then
// resolves and attaches each genre, then reloads the song with its genre
// set. Genre attachment is per-entry, not transactional; an entry that
// fails to resolve is logged and skipped.
func (s *SongService) CreateWithGenres(ctx context.Context, song *models.Song, genreTitles []string) (*models.Song, error) {
	id, err := s.repo.Create(ctx, song)
	if err != nil {
		return nil, err
	}

	for _, title := range genreTitles {
		genre, err := s.genres.GetOrCreate(ctx, title)
		if err != nil {
			s.logger.WithError(err).WithField("genre", title).Warn("Skipping unresolvable genre")
			continue
		}
		if err := s.repo.AddGenre(ctx, id, genre.ID); err != nil {
			s.logger.WithError(err).WithField("genre", title).Warn("Failed to attach genre")
		}
	}

	return s.repo.GetByID(ctx, id)
}

func (s *SongService) GetByID(ctx context.Context, id int) (*models.Song, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SongService) GetByTitle(ctx context.Context, title string) (*models.Song, error) {
	return s.repo.GetByTitle(ctx, title)
}

func (s *SongService) GetAll(ctx context.Context) ([]models.Song, error) {
	return s.repo.GetAll(ctx)
}

// Filter resolves the genre titles and returns matching songs, distinct,
// in ascending id order.
func (s *SongService) Filter(ctx context.Context, filter SongFilter) ([]models.Song, error) {
	var genreIDs []int
	for _, title := range filter.GenreTitles {
		genre, err := s.genres.GetOrCreate(ctx, title)
		if err != nil {
			s.logger.WithError(err).WithField("genre", title).Warn("Skipping unresolvable genre in filter")
			continue
		}
		genreIDs = append(genreIDs, genre.ID)
	}

	songs, err := s.repo.GetByFilter(ctx, filter.Type, filter.Tempo, genreIDs)
	if err != nil {
		return nil, err
	}
	return dedupeSongs(songs), nil
}

func (s *SongService) Update(ctx context.Context, song *models.Song) error {
	return s.repo.Update(ctx, song)
}

// SetGenres makes the song's genre set equal exactly the given titles,
// applying the symmetric difference instead of a blind clear-then-add.
func (s *SongService) SetGenres(ctx context.Context, songID int, genreTitles []string) error {
	song, err := s.repo.GetByID(ctx, songID)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(genreTitles))
	for _, title := range genreTitles {
		wanted[NormalizeGenreTitle(title)] = true
	}

	for _, genre := range song.Genres {
		if !wanted[genre.Title] {
			if err := s.repo.RemoveGenre(ctx, songID, genre.ID); err != nil {
				return err
			}
		}
	}

	for title := range wanted {
		if song.HasGenre(title) {
			continue
		}
		genre, err := s.genres.GetOrCreate(ctx, title)
		if err != nil {
			return err
		}
		if err := s.repo.AddGenre(ctx, songID, genre.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SongService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// dedupeSongs removes duplicate ids preserving first-seen order; result
// sets assembled from join queries may repeat a song per matched genre.
func dedupeSongs(songs []models.Song) []models.Song {
	seen := make(map[int]bool, len(songs))
	out := songs[:0]
	for _, song := range songs {
		if seen[song.ID] {
			continue
		}
		seen[song.ID] = true
		out = append(out, song)
	}
	return out
}

// SongIDs projects a song list to its identifier snapshot for cursoring.
func SongIDs(songs []models.Song) []int {
	ids := make([]int, 0, len(songs))
	for _, song := range songs {
		ids = append(ids, song.ID)
	}
	return ids
}
