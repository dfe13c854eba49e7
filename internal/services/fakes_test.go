package services

import (
	"context"
	"io"
	"songshop/internal/models"
	"songshop/internal/repository"
	"sort"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeGenreRepo is an in-memory GenreRepository.
type fakeGenreRepo struct {
	byTitle map[string]*models.Genre
	nextID  int

	// createConflict makes the next Create lose the race: it inserts the
	// row but reports ErrConflict, like a unique-violation from a
	// concurrent writer.
	createConflict bool
	createCalls    int
}

func newFakeGenreRepo() *fakeGenreRepo {
	return &fakeGenreRepo{byTitle: make(map[string]*models.Genre), nextID: 1}
}

func (f *fakeGenreRepo) Create(ctx context.Context, title string) (int, error) {
	f.createCalls++
	if _, ok := f.byTitle[title]; ok {
		return 0, repository.ErrConflict
	}
	g := &models.Genre{ID: f.nextID, Title: title}
	f.nextID++
	f.byTitle[title] = g
	if f.createConflict {
		f.createConflict = false
		return 0, repository.ErrConflict
	}
	return g.ID, nil
}

func (f *fakeGenreRepo) GetByID(ctx context.Context, id int) (*models.Genre, error) {
	for _, g := range f.byTitle {
		if g.ID == id {
			copied := *g
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGenreRepo) GetByTitle(ctx context.Context, title string) (*models.Genre, error) {
	g, ok := f.byTitle[title]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGenreRepo) GetAll(ctx context.Context) ([]models.Genre, error) {
	out := make([]models.Genre, 0, len(f.byTitle))
	for _, g := range f.byTitle {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeSongRepo is an in-memory SongRepository with genre links.
type fakeSongRepo struct {
	songs  map[int]*models.Song
	genres *fakeGenreRepo
	nextID int

	removedGenres [][2]int
	addedGenres   [][2]int
}

func newFakeSongRepo(genres *fakeGenreRepo) *fakeSongRepo {
	return &fakeSongRepo{songs: make(map[int]*models.Song), genres: genres, nextID: 1}
}

func (f *fakeSongRepo) Create(ctx context.Context, song *models.Song) (int, error) {
	for _, s := range f.songs {
		if s.Title == song.Title {
			return 0, repository.ErrConflict
		}
	}
	stored := *song
	stored.ID = f.nextID
	f.nextID++
	f.songs[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeSongRepo) GetByID(ctx context.Context, id int) (*models.Song, error) {
	s, ok := f.songs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	copied.Genres = append([]models.Genre(nil), s.Genres...)
	return &copied, nil
}

func (f *fakeSongRepo) GetByTitle(ctx context.Context, title string) (*models.Song, error) {
	for id, s := range f.songs {
		if s.Title == title {
			return f.GetByID(ctx, id)
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSongRepo) GetAll(ctx context.Context) ([]models.Song, error) {
	return f.GetByFilter(ctx, nil, nil, nil)
}

func (f *fakeSongRepo) GetByFilter(ctx context.Context, songType *models.SongType, tempo *models.SongTempo, genreIDs []int) ([]models.Song, error) {
	ids := make([]int, 0, len(f.songs))
	for id := range f.songs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out []models.Song
	for _, id := range ids {
		s := f.songs[id]
		if songType != nil && s.Type != *songType {
			continue
		}
		if tempo != nil && s.Tempo != *tempo {
			continue
		}
		if len(genreIDs) > 0 {
			matched := false
			for _, want := range genreIDs {
				for _, g := range s.Genres {
					if g.ID == want {
						matched = true
					}
				}
			}
			if !matched {
				continue
			}
		}
		copied := *s
		copied.Genres = append([]models.Genre(nil), s.Genres...)
		out = append(out, copied)
	}
	return out, nil
}

func (f *fakeSongRepo) Update(ctx context.Context, song *models.Song) error {
	existing, ok := f.songs[song.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, s := range f.songs {
		if id != song.ID && s.Title == song.Title {
			return repository.ErrConflict
		}
	}
	updated := *song
	updated.Genres = existing.Genres
	f.songs[song.ID] = &updated
	return nil
}

func (f *fakeSongRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.songs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.songs, id)
	return nil
}

func (f *fakeSongRepo) AddGenre(ctx context.Context, songID, genreID int) error {
	s, ok := f.songs[songID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, g := range s.Genres {
		if g.ID == genreID {
			return nil
		}
	}
	genre, err := f.genres.GetByID(ctx, genreID)
	if err != nil {
		return err
	}
	s.Genres = append(s.Genres, *genre)
	f.addedGenres = append(f.addedGenres, [2]int{songID, genreID})
	return nil
}

func (f *fakeSongRepo) RemoveGenre(ctx context.Context, songID, genreID int) error {
	s, ok := f.songs[songID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, g := range s.Genres {
		if g.ID == genreID {
			s.Genres = append(s.Genres[:i], s.Genres[i+1:]...)
			f.removedGenres = append(f.removedGenres, [2]int{songID, genreID})
			return nil
		}
	}
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	byID map[string]*models.User

	// createConflict simulates losing a create race once.
	createConflict bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.createConflict {
		f.createConflict = false
		copied := *user
		f.byID[user.ID] = &copied
		return repository.ErrConflict
	}
	if _, ok := f.byID[user.ID]; ok {
		return repository.ErrConflict
	}
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var ids []string
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if f.byID[id].Username == username {
			return f.GetByID(ctx, id)
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) UpdateUsername(ctx context.Context, id, username string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Username = username
	return nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id string, isStaff bool) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsStaff = isStaff
	return nil
}

// fakeWishlistRepo is an in-memory WishlistRepository.
type fakeWishlistRepo struct {
	entries map[string]map[int]bool
}

func newFakeWishlistRepo() *fakeWishlistRepo {
	return &fakeWishlistRepo{entries: make(map[string]map[int]bool)}
}

func (f *fakeWishlistRepo) Add(ctx context.Context, userID string, songID int) error {
	if f.entries[userID] == nil {
		f.entries[userID] = make(map[int]bool)
	}
	f.entries[userID][songID] = true
	return nil
}

func (f *fakeWishlistRepo) Remove(ctx context.Context, userID string, songID int) error {
	delete(f.entries[userID], songID)
	return nil
}

func (f *fakeWishlistRepo) GetSongIDs(ctx context.Context, userID string) ([]int, error) {
	var ids []int
	for id := range f.entries[userID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// fakeHistoryRepo records history events in append order.
type fakeHistoryRepo struct {
	records []models.ViewHistory
	nextID  int
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{nextID: 1}
}

func (f *fakeHistoryRepo) Log(ctx context.Context, userID, songTitle string, action models.HistoryAction) (int, error) {
	rec := models.ViewHistory{ID: f.nextID, UserID: userID, SongTitle: songTitle, Action: action}
	f.nextID++
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeHistoryRepo) GetByUser(ctx context.Context, userID string) ([]models.ViewHistory, error) {
	var out []models.ViewHistory
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}
