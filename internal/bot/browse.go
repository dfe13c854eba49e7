package bot

import (
	"context"
	"errors"
	"fmt"
	"songshop/internal/models"
	"songshop/internal/repository"
	"songshop/internal/services"
	"songshop/internal/session"
	"strings"
)

// startCatalog enters the browsing state with an empty filter and asks for
// a song type.
func (h *Handler) startCatalog(ctx context.Context, chatID int64) {
	payload := &session.Payload{Browse: &session.BrowseData{}}
	if !h.setSession(ctx, chatID, session.StateBrowsing, payload) {
		return
	}

	text := "<b>🎵 Welcome to the song catalog!</b>\n\n" +
		"Pick the song type you are interested in 👇"
	h.replyKeyboard(ctx, chatID, text, typeKeyboard("type"))
}

func (h *Handler) onSelectType(ctx context.Context, cb *models.CallbackQuery, browse *session.BrowseData, arg string) {
	chatID := cb.Message.Chat.Id

	if _, err := models.ParseSongType(arg); err != nil {
		h.answerAlert(ctx, cb.Id, "Pick a type from the list.")
		return
	}

	browse.Type = arg
	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}

	if err := h.sender.EditMessageText(ctx, chatID, cb.Message.MessageId, "Choose an action:", actionKeyboard()); err != nil {
		h.logger.WithError(err).Error("Failed to edit message")
	}
	h.answer(ctx, cb.Id, "")
}

func (h *Handler) onViewAll(ctx context.Context, cb *models.CallbackQuery, user *models.User, browse *session.BrowseData) {
	chatID := cb.Message.Chat.Id

	songType, err := models.ParseSongType(browse.Type)
	if err != nil {
		h.expired(ctx, cb)
		return
	}

	songs, err := h.songs.Filter(ctx, services.SongFilter{Type: &songType})
	if err != nil {
		h.logger.WithError(err).Error("Failed to filter songs")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	if len(songs) == 0 {
		h.resetNoResults(ctx, cb)
		return
	}

	browse.SongIDs = services.SongIDs(songs)
	browse.Index = 0
	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}

	h.answer(ctx, cb.Id, "")
	h.deleteMessage(ctx, chatID, cb.Message.MessageId)
	h.sendCurrentSong(ctx, chatID, user, browse)
}

func (h *Handler) onRefine(ctx context.Context, cb *models.CallbackQuery) {
	chatID := cb.Message.Chat.Id
	if err := h.sender.EditMessageText(ctx, chatID, cb.Message.MessageId, "🎛 Pick a tempo:", tempoKeyboard("tempo")); err != nil {
		h.logger.WithError(err).Error("Failed to edit message")
	}
	h.answer(ctx, cb.Id, "")
}

func (h *Handler) onSelectTempo(ctx context.Context, cb *models.CallbackQuery, browse *session.BrowseData, arg string) {
	chatID := cb.Message.Chat.Id

	if _, err := models.ParseSongTempo(arg); err != nil {
		h.answerAlert(ctx, cb.Id, "Pick a tempo from the list.")
		return
	}

	browse.Tempo = arg
	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}
	h.showGenrePicker(ctx, cb, browse, true)
}

// showGenrePicker renders the toggle keyboard over all known genres, with
// the current selection checked.
func (h *Handler) showGenrePicker(ctx context.Context, cb *models.CallbackQuery, browse *session.BrowseData, edit bool) {
	chatID := cb.Message.Chat.Id

	all, err := h.genres.GetAll(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list genres")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	if len(all) == 0 {
		h.answerAlert(ctx, cb.Id, "No genres in the catalog yet.")
		return
	}

	kb := genreToggleKeyboard(all, browse.Genres)
	text := "🎭 Pick up to 3 genres:"
	if edit {
		if err := h.sender.EditMessageText(ctx, chatID, cb.Message.MessageId, text, kb); err != nil {
			h.logger.WithError(err).Error("Failed to edit message")
		}
	} else {
		h.replyKeyboard(ctx, chatID, text, kb)
	}
	h.answer(ctx, cb.Id, "")
}

// onToggleGenre flips one genre in the selection; picking past the cap of
// 3 is rejected without changing the set.
func (h *Handler) onToggleGenre(ctx context.Context, cb *models.CallbackQuery, browse *session.BrowseData, title string) {
	chatID := cb.Message.Chat.Id

	idx := -1
	for i, g := range browse.Genres {
		if g == title {
			idx = i
			break
		}
	}
	switch {
	case idx >= 0:
		browse.Genres = append(browse.Genres[:idx], browse.Genres[idx+1:]...)
	case len(browse.Genres) < maxFilterGenres:
		browse.Genres = append(browse.Genres, title)
	default:
		h.answer(ctx, cb.Id, fmt.Sprintf("No more than %d genres.", maxFilterGenres))
		return
	}

	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}

	all, err := h.genres.GetAll(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list genres")
		h.answer(ctx, cb.Id, "")
		return
	}
	if err := h.sender.EditMessageKeyboard(ctx, chatID, cb.Message.MessageId, genreToggleKeyboard(all, browse.Genres)); err != nil {
		h.logger.WithError(err).Warn("Failed to refresh genre keyboard")
	}
	h.answer(ctx, cb.Id, fmt.Sprintf("Selected %d of %d", len(browse.Genres), maxFilterGenres))
}

func (h *Handler) onGenreDone(ctx context.Context, cb *models.CallbackQuery, user *models.User, browse *session.BrowseData) {
	chatID := cb.Message.Chat.Id

	if len(browse.Genres) == 0 {
		h.answerAlert(ctx, cb.Id, "Pick at least one genre first.")
		return
	}

	songType, err := models.ParseSongType(browse.Type)
	if err != nil {
		h.expired(ctx, cb)
		return
	}
	tempo, err := models.ParseSongTempo(browse.Tempo)
	if err != nil {
		h.expired(ctx, cb)
		return
	}

	songs, err := h.songs.Filter(ctx, services.SongFilter{
		Type:        &songType,
		Tempo:       &tempo,
		GenreTitles: browse.Genres,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to filter songs")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	if len(songs) == 0 {
		h.resetNoResults(ctx, cb)
		return
	}

	browse.SongIDs = services.SongIDs(songs)
	browse.Index = 0
	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}

	h.answer(ctx, cb.Id, "")
	h.deleteMessage(ctx, chatID, cb.Message.MessageId)
	h.sendCurrentSong(ctx, chatID, user, browse)
}

// resetNoResults degrades an empty match back to the type-selection step
// with no snapshot stored.
func (h *Handler) resetNoResults(ctx context.Context, cb *models.CallbackQuery) {
	chatID := cb.Message.Chat.Id

	if err := h.sender.EditMessageText(ctx, chatID, cb.Message.MessageId, "😔 No songs matched your filter.", nil); err != nil {
		h.logger.WithError(err).Warn("Failed to edit message")
	}
	h.answer(ctx, cb.Id, "")
	h.startCatalog(ctx, chatID)
}

// onNavigate moves the cursor with modular wrap: past the end is the
// beginning and vice versa.
func (h *Handler) onNavigate(ctx context.Context, cb *models.CallbackQuery, user *models.User, browse *session.BrowseData, forward bool) {
	chatID := cb.Message.Chat.Id

	if len(browse.SongIDs) == 0 {
		h.expired(ctx, cb)
		return
	}

	if forward {
		browse.Index = (browse.Index + 1) % len(browse.SongIDs)
	} else {
		browse.Index = (browse.Index - 1 + len(browse.SongIDs)) % len(browse.SongIDs)
	}
	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}

	h.answer(ctx, cb.Id, "")
	h.deleteMessage(ctx, chatID, cb.Message.MessageId)
	h.sendCurrentSong(ctx, chatID, user, browse)
}

// onRestartLevel re-opens type/tempo/genre selection, discarding the
// narrower criteria and the snapshot.
func (h *Handler) onRestartLevel(ctx context.Context, cb *models.CallbackQuery, browse *session.BrowseData, kind CommandKind) {
	chatID := cb.Message.Chat.Id

	switch kind {
	case KindNavType:
		browse.Type = ""
		browse.Tempo = ""
		browse.Genres = nil
		browse.SongIDs = nil
		browse.Index = 0
		if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
			return
		}
		h.answer(ctx, cb.Id, "")
		h.deleteMessage(ctx, chatID, cb.Message.MessageId)
		h.replyKeyboard(ctx, chatID, "🎶 Pick a song type:", typeKeyboard("type"))

	case KindNavTempo:
		if browse.Type == "" {
			h.answerAlert(ctx, cb.Id, "Pick a song type first.")
			return
		}
		browse.Tempo = ""
		browse.Genres = nil
		browse.SongIDs = nil
		browse.Index = 0
		if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
			return
		}
		h.answer(ctx, cb.Id, "")
		h.deleteMessage(ctx, chatID, cb.Message.MessageId)
		h.replyKeyboard(ctx, chatID, "🎛 Pick a tempo:", tempoKeyboard("tempo"))

	case KindNavGenre:
		if browse.Tempo == "" {
			h.answerAlert(ctx, cb.Id, "Pick a tempo first.")
			return
		}
		browse.SongIDs = nil
		browse.Index = 0
		if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
			return
		}
		h.deleteMessage(ctx, chatID, cb.Message.MessageId)
		h.showGenrePicker(ctx, cb, browse, false)
	}
}

// onLike wishlists the current song; the add is idempotent, the "like"
// history event is not.
func (h *Handler) onLike(ctx context.Context, cb *models.CallbackQuery, user *models.User, browse *session.BrowseData) {
	chatID := cb.Message.Chat.Id

	if len(browse.SongIDs) == 0 {
		h.expired(ctx, cb)
		return
	}
	songID := browse.SongIDs[browse.Index]

	song, err := h.songs.GetByID(ctx, songID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.answer(ctx, cb.Id, "")
			h.reply(ctx, chatID, "🔎 Song not found.")
			h.startCatalog(ctx, chatID)
			return
		}
		h.logger.WithError(err).Error("Failed to load song")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}

	if err := h.users.AddToWishlist(ctx, user.ID, songID); err != nil {
		h.logger.WithError(err).Error("Failed to add to wishlist")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	h.users.LogView(ctx, user.ID, song.Title, models.ActionLike)
	h.answer(ctx, cb.Id, "❤️ Added to your wishlist")
}

// sendCurrentSong renders the song under the cursor and logs a "view"
// event; every arrival logs, revisits included.
func (h *Handler) sendCurrentSong(ctx context.Context, chatID int64, user *models.User, browse *session.BrowseData) {
	songID := browse.SongIDs[browse.Index]

	song, err := h.songs.GetByID(ctx, songID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.reply(ctx, chatID, "🔎 Song not found.")
			h.startCatalog(ctx, chatID)
			return
		}
		h.logger.WithError(err).Error("Failed to load song")
		h.failNotify(ctx, chatID)
		return
	}

	h.users.LogView(ctx, user.ID, song.Title, models.ActionView)

	h.sendSongCard(ctx, chatID, song, songNavKeyboard(song.Lyrics != nil))
}

// sendSongCard picks the transport method matching the song's media kind.
func (h *Handler) sendSongCard(ctx context.Context, chatID int64, song *models.Song, kb *models.InlineKeyboardMarkup) {
	caption := songCaption(song)

	var err error
	switch {
	case song.FileID != nil && song.FileType != nil && *song.FileType == models.FileAudio:
		err = h.sender.SendAudio(ctx, chatID, *song.FileID, caption, kb)
	case song.FileID != nil:
		err = h.sender.SendVideo(ctx, chatID, *song.FileID, caption, kb)
	default:
		err = h.sender.SendMessage(ctx, chatID, caption, kb)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to send song card")
	}
}

func songCaption(song *models.Song) string {
	var genres []string
	for _, g := range song.Genres {
		genres = append(genres, "<i>#"+g.Title+"</i>")
	}

	return fmt.Sprintf(
		"🎵 <b>%s</b>\n\n<b>Type:</b> %s\n<b>Tempo:</b> %s\n<b>Genres:</b> %s\n",
		song.Title,
		typeLabels[song.Type],
		tempoLabels[song.Tempo],
		strings.Join(genres, ", "),
	)
}
