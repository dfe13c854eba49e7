package bot

import (
	"context"
	"encoding/json"
	"io"
	"songshop/internal/models"
	"songshop/internal/repository"
	"songshop/internal/services"
	"songshop/internal/session"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// memStore is an in-memory session.Store. It round-trips payloads through
// JSON so tests see the same copy semantics as the Redis store.
type memStore struct {
	data map[int64][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[int64][]byte)}
}

type memRecord struct {
	State   session.State    `json:"state"`
	Payload *session.Payload `json:"payload,omitempty"`
}

func (s *memStore) Get(ctx context.Context, chatID int64) (session.State, *session.Payload, error) {
	raw, ok := s.data[chatID]
	if !ok {
		return session.StateIdle, &session.Payload{}, nil
	}
	var rec memRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return session.StateIdle, nil, err
	}
	if rec.Payload == nil {
		rec.Payload = &session.Payload{}
	}
	return rec.State, rec.Payload, nil
}

func (s *memStore) Set(ctx context.Context, chatID int64, state session.State, payload *session.Payload) error {
	raw, err := json.Marshal(memRecord{State: state, Payload: payload})
	if err != nil {
		return err
	}
	s.data[chatID] = raw
	return nil
}

func (s *memStore) Clear(ctx context.Context, chatID int64) error {
	delete(s.data, chatID)
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
	method string // "message", "replyKeyboard", "video", "audio", "edit"
	inline *models.InlineKeyboardMarkup
}

type sentDocument struct {
	chatID   int64
	filename string
	content  []byte
	caption  string
}

type answeredCallback struct {
	id    string
	text  string
	alert bool
}

// recorderSender captures outbound traffic instead of hitting Telegram.
type recorderSender struct {
	messages  []sentMessage
	documents []sentDocument
	answers   []answeredCallback
	deleted   []int
}

func (r *recorderSender) SendMessage(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) error {
	r.messages = append(r.messages, sentMessage{chatID: chatID, text: text, method: "message", inline: kb})
	return nil
}

func (r *recorderSender) SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb *models.ReplyKeyboardMarkup) error {
	r.messages = append(r.messages, sentMessage{chatID: chatID, text: text, method: "replyKeyboard"})
	return nil
}

func (r *recorderSender) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboardMarkup) error {
	r.messages = append(r.messages, sentMessage{chatID: chatID, text: text, method: "edit", inline: kb})
	return nil
}

func (r *recorderSender) EditMessageKeyboard(ctx context.Context, chatID int64, messageID int, kb *models.InlineKeyboardMarkup) error {
	r.messages = append(r.messages, sentMessage{chatID: chatID, method: "editKeyboard", inline: kb})
	return nil
}

func (r *recorderSender) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	r.deleted = append(r.deleted, messageID)
	return nil
}

func (r *recorderSender) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	r.answers = append(r.answers, answeredCallback{id: callbackID, text: text, alert: showAlert})
	return nil
}

func (r *recorderSender) SendVideo(ctx context.Context, chatID int64, fileID, caption string, kb *models.InlineKeyboardMarkup) error {
	r.messages = append(r.messages, sentMessage{chatID: chatID, text: caption, method: "video", inline: kb})
	return nil
}

func (r *recorderSender) SendAudio(ctx context.Context, chatID int64, fileID, caption string, kb *models.InlineKeyboardMarkup) error {
	r.messages = append(r.messages, sentMessage{chatID: chatID, text: caption, method: "audio", inline: kb})
	return nil
}

func (r *recorderSender) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error {
	r.documents = append(r.documents, sentDocument{chatID: chatID, filename: filename, content: content, caption: caption})
	return nil
}

func (r *recorderSender) lastText() string {
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1].text
}

func (r *recorderSender) lastAnswer() answeredCallback {
	if len(r.answers) == 0 {
		return answeredCallback{}
	}
	return r.answers[len(r.answers)-1]
}

// In-memory repositories backing the service layer in handler tests.

type stubGenreRepo struct {
	byTitle map[string]*models.Genre
	nextID  int
}

func (f *stubGenreRepo) Create(ctx context.Context, title string) (int, error) {
	if _, ok := f.byTitle[title]; ok {
		return 0, repository.ErrConflict
	}
	g := &models.Genre{ID: f.nextID, Title: title}
	f.nextID++
	f.byTitle[title] = g
	return g.ID, nil
}

func (f *stubGenreRepo) GetByID(ctx context.Context, id int) (*models.Genre, error) {
	for _, g := range f.byTitle {
		if g.ID == id {
			copied := *g
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *stubGenreRepo) GetByTitle(ctx context.Context, title string) (*models.Genre, error) {
	g, ok := f.byTitle[title]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *stubGenreRepo) GetAll(ctx context.Context) ([]models.Genre, error) {
	out := make([]models.Genre, 0, len(f.byTitle))
	for _, g := range f.byTitle {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubSongRepo struct {
	songs  map[int]*models.Song
	genres *stubGenreRepo
	nextID int
}

func (f *stubSongRepo) Create(ctx context.Context, song *models.Song) (int, error) {
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

func (f *stubSongRepo) GetByID(ctx context.Context, id int) (*models.Song, error) {
	s, ok := f.songs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	copied.Genres = append([]models.Genre(nil), s.Genres...)
	return &copied, nil
}

func (f *stubSongRepo) GetByTitle(ctx context.Context, title string) (*models.Song, error) {
	for id, s := range f.songs {
		if s.Title == title {
			return f.GetByID(ctx, id)
		}
	}
	return nil, repository.ErrNotFound
}

func (f *stubSongRepo) GetAll(ctx context.Context) ([]models.Song, error) {
	return f.GetByFilter(ctx, nil, nil, nil)
}

func (f *stubSongRepo) GetByFilter(ctx context.Context, songType *models.SongType, tempo *models.SongTempo, genreIDs []int) ([]models.Song, error) {
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

func (f *stubSongRepo) Update(ctx context.Context, song *models.Song) error {
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

func (f *stubSongRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.songs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.songs, id)
	return nil
}

func (f *stubSongRepo) AddGenre(ctx context.Context, songID, genreID int) error {
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
	return nil
}

func (f *stubSongRepo) RemoveGenre(ctx context.Context, songID, genreID int) error {
	s, ok := f.songs[songID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, g := range s.Genres {
		if g.ID == genreID {
			s.Genres = append(s.Genres[:i], s.Genres[i+1:]...)
			return nil
		}
	}
	return nil
}

type stubUserRepo struct {
	byID map[string]*models.User
}

func (f *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := f.byID[user.ID]; ok {
		return repository.ErrConflict
	}
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *stubUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *stubUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
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

func (f *stubUserRepo) UpdateUsername(ctx context.Context, id, username string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Username = username
	return nil
}

func (f *stubUserRepo) UpdateRole(ctx context.Context, id string, isStaff bool) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsStaff = isStaff
	return nil
}

type stubWishlistRepo struct {
	entries map[string]map[int]bool
}

func (f *stubWishlistRepo) Add(ctx context.Context, userID string, songID int) error {
	if f.entries[userID] == nil {
		f.entries[userID] = make(map[int]bool)
	}
	f.entries[userID][songID] = true
	return nil
}

func (f *stubWishlistRepo) Remove(ctx context.Context, userID string, songID int) error {
	delete(f.entries[userID], songID)
	return nil
}

func (f *stubWishlistRepo) GetSongIDs(ctx context.Context, userID string) ([]int, error) {
	var ids []int
	for id := range f.entries[userID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

type stubHistoryRepo struct {
	records []models.ViewHistory
	nextID  int
	now     time.Time
}

func (f *stubHistoryRepo) Log(ctx context.Context, userID, songTitle string, action models.HistoryAction) (int, error) {
	f.now = f.now.Add(time.Second)
	rec := models.ViewHistory{ID: f.nextID, UserID: userID, SongTitle: songTitle, ViewedAt: f.now, Action: action}
	f.nextID++
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *stubHistoryRepo) GetByUser(ctx context.Context, userID string) ([]models.ViewHistory, error) {
	var out []models.ViewHistory
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

// fixture wires a Handler over in-memory fakes.
type fixture struct {
	handler  *Handler
	sender   *recorderSender
	store    *memStore
	songs    *stubSongRepo
	genres   *stubGenreRepo
	users    *stubUserRepo
	wishlist *stubWishlistRepo
	history  *stubHistoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	genreRepo := &stubGenreRepo{byTitle: make(map[string]*models.Genre), nextID: 1}
	songRepo := &stubSongRepo{songs: make(map[int]*models.Song), genres: genreRepo, nextID: 1}
	userRepo := &stubUserRepo{byID: make(map[string]*models.User)}
	wishlistRepo := &stubWishlistRepo{entries: make(map[string]map[int]bool)}
	historyRepo := &stubHistoryRepo{nextID: 1, now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	genres := services.NewGenreService(genreRepo, nil, log)
	songs := services.NewSongService(songRepo, genres, log)
	users := services.NewUserService(userRepo, wishlistRepo, historyRepo, log)

	sender := &recorderSender{}
	store := newMemStore()

	return &fixture{
		handler:  NewHandler(songs, genres, users, store, sender, "@support", log),
		sender:   sender,
		store:    store,
		songs:    songRepo,
		genres:   genreRepo,
		users:    userRepo,
		wishlist: wishlistRepo,
		history:  historyRepo,
	}
}

// seedSong inserts a song with resolved genres directly into the stores.
func (f *fixture) seedSong(t *testing.T, title string, st models.SongType, tempo models.SongTempo, genres ...string) *models.Song {
	t.Helper()
	ctx := context.Background()

	id, err := f.songs.Create(ctx, &models.Song{Title: title, Type: st, Tempo: tempo, AuthorID: "admin"})
	if err != nil {
		t.Fatalf("seed song: %v", err)
	}
	for _, g := range genres {
		genre, err := f.genres.GetByTitle(ctx, g)
		if err != nil {
			gid, err := f.genres.Create(ctx, g)
			if err != nil {
				t.Fatalf("seed genre: %v", err)
			}
			genre = &models.Genre{ID: gid, Title: g}
		}
		if err := f.songs.AddGenre(ctx, id, genre.ID); err != nil {
			t.Fatalf("seed genre link: %v", err)
		}
	}
	song, err := f.songs.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("seed reload: %v", err)
	}
	return song
}

func (f *fixture) seedUser(t *testing.T, id, username string, staff bool) *models.User {
	t.Helper()
	user := &models.User{ID: id, Username: username, IsStaff: staff}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (f *fixture) state(t *testing.T, chatID int64) (session.State, *session.Payload) {
	t.Helper()
	state, payload, err := f.store.Get(context.Background(), chatID)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	return state, payload
}

func callback(chatID int64, userID int64, data string) *models.CallbackQuery {
	return &models.CallbackQuery{
		Id:      "cb1",
		From:    models.TgUser{Id: userID, Username: "tester"},
		Message: &models.Message{MessageId: 10, Chat: models.Chat{Id: chatID}},
		Data:    data,
	}
}

func textUpdate(chatID int64, userID int64, username, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			MessageId: 11,
			Text:      text,
			Chat:      models.Chat{Id: chatID},
			From:      models.TgUser{Id: userID, Username: username},
		},
	}
}

func callbackUpdate(chatID int64, userID int64, data string) *models.Update {
	return &models.Update{CallbackQuery: callback(chatID, userID, data)}
}
