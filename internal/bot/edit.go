package bot

import (
	"context"
	"errors"
	"songshop/internal/models"
	"songshop/internal/repository"
	"songshop/internal/services"
	"songshop/internal/session"
)

const deleteSentinel = "delete"

// startEditSong opens the edit sub-chain by asking which song to edit.
func (h *Handler) startEditSong(ctx context.Context, chatID int64) {
	payload := &session.Payload{Wizard: &session.WizardData{}}
	if !h.setSession(ctx, chatID, session.StateEditSelectTitle, payload) {
		return
	}
	h.replyMenu(ctx, chatID, "✏️ Enter the title of the song to edit:", cancelKeyboard())
}

func (h *Handler) processEditLookup(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	song, err := h.songs.GetByTitle(ctx, text)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.reply(ctx, chatID, "🔎 No song with that title. Try again or press ❌ Cancel.")
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to look up song")
		h.failNotify(ctx, chatID)
		return
	}

	payload.Wizard.EditSongID = song.ID
	h.showEditMenu(ctx, chatID, song, payload)
}

// showEditMenu re-renders the full song summary with the field picker;
// every field edit loops back here.
func (h *Handler) showEditMenu(ctx context.Context, chatID int64, song *models.Song, payload *session.Payload) {
	if !h.setSession(ctx, chatID, session.StateEditSelectField, payload) {
		return
	}
	h.replyKeyboard(ctx, chatID, songCaption(song)+"\n✏️ Pick a field to edit:", editFieldKeyboard())
}

func (h *Handler) onEditField(ctx context.Context, cb *models.CallbackQuery, payload *session.Payload, field string) {
	chatID := cb.Message.Chat.Id

	var (
		next   session.State
		prompt string
		inline *models.InlineKeyboardMarkup
	)
	switch field {
	case "title":
		next, prompt = session.StateEditTitle, "🎶 Enter the new title:"
	case "type":
		next, prompt, inline = session.StateEditType, "🎚 Pick the new type:", typeKeyboard("wtype")
	case "tempo":
		next, prompt, inline = session.StateEditTempo, "🎛 Pick the new tempo:", tempoKeyboard("wtempo")
	case "genres":
		next, prompt = session.StateEditGenres, "🎭 Enter up to 3 genres separated by commas, or 'delete' to clear them:"
	case "lyrics":
		next, prompt = session.StateEditLyrics, "📝 Send the new lyrics, or 'delete' to clear them:"
	case "media":
		next, prompt = session.StateEditMedia, "🎥 Send a new audio or video file, or 'delete' to clear it:"
	default:
		h.answerAlert(ctx, cb.Id, "Unknown field.")
		return
	}

	if !h.setSession(ctx, chatID, next, payload) {
		return
	}
	h.answer(ctx, cb.Id, "")
	if inline != nil {
		h.replyKeyboard(ctx, chatID, prompt, inline)
		return
	}
	h.replyMenu(ctx, chatID, prompt, cancelKeyboard())
}

// applyEdit loads the song being edited, applies the mutation, persists it
// and returns to the field menu.
func (h *Handler) applyEdit(ctx context.Context, cb *models.CallbackQuery, payload *session.Payload, mutate func(*models.Song)) {
	chatID := cb.Message.Chat.Id

	song, err := h.loadEditSong(ctx, chatID, payload)
	if err != nil {
		h.answer(ctx, cb.Id, "")
		return
	}

	mutate(song)
	if err := h.songs.Update(ctx, song); err != nil {
		h.logger.WithError(err).Error("Failed to update song")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}

	h.answer(ctx, cb.Id, "✅ Updated")
	h.showEditMenu(ctx, chatID, song, payload)
}

func (h *Handler) processEditTitle(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	if err := services.ValidateSongTitle(text); err != nil {
		h.reply(ctx, chatID, "❌ "+err.Error())
		return
	}

	// Colliding with the song's own current title is allowed.
	existing, err := h.songs.GetByTitle(ctx, text)
	switch {
	case err == nil && existing.ID != payload.Wizard.EditSongID:
		h.reply(ctx, chatID, "❌ Another song already uses this title.")
		return
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		h.logger.WithError(err).Error("Failed to check title uniqueness")
		h.failNotify(ctx, chatID)
		return
	}

	song, err := h.loadEditSong(ctx, chatID, payload)
	if err != nil {
		return
	}
	song.Title = text
	if err := h.songs.Update(ctx, song); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			h.reply(ctx, chatID, "❌ Another song already uses this title.")
			return
		}
		h.logger.WithError(err).Error("Failed to update song")
		h.failNotify(ctx, chatID)
		return
	}
	h.showEditMenu(ctx, chatID, song, payload)
}

func (h *Handler) processEditGenres(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	var titles []string
	if text != deleteSentinel {
		var err error
		titles, err = services.SplitGenreInput(text, maxFilterGenres)
		if err != nil {
			h.reply(ctx, chatID, "❌ "+capitalizeSentence(err.Error()))
			return
		}
		for _, title := range titles {
			if err := services.ValidateGenreTitle(title); err != nil {
				h.reply(ctx, chatID, "❌ Genre name is too long: "+title)
				return
			}
		}
	}

	if err := h.songs.SetGenres(ctx, payload.Wizard.EditSongID, titles); err != nil {
		h.logger.WithError(err).Error("Failed to replace genres")
		h.failNotify(ctx, chatID)
		return
	}

	song, err := h.loadEditSong(ctx, chatID, payload)
	if err != nil {
		return
	}
	h.showEditMenu(ctx, chatID, song, payload)
}

func (h *Handler) processEditLyrics(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	song, err := h.loadEditSong(ctx, chatID, payload)
	if err != nil {
		return
	}

	if text == deleteSentinel {
		song.Lyrics = nil
	} else {
		lyrics := text
		song.Lyrics = &lyrics
	}

	if err := h.songs.Update(ctx, song); err != nil {
		h.logger.WithError(err).Error("Failed to update song")
		h.failNotify(ctx, chatID)
		return
	}
	h.showEditMenu(ctx, chatID, song, payload)
}

func (h *Handler) processEditMedia(ctx context.Context, msg *models.Message, payload *session.Payload) {
	chatID := msg.Chat.Id
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	song, err := h.loadEditSong(ctx, chatID, payload)
	if err != nil {
		return
	}

	switch {
	case msg.Video != nil:
		fileID := msg.Video.FileId
		fileType := models.FileVideo
		song.FileID, song.FileType = &fileID, &fileType
	case msg.Audio != nil:
		fileID := msg.Audio.FileId
		fileType := models.FileAudio
		song.FileID, song.FileType = &fileID, &fileType
	case msg.Text == deleteSentinel:
		song.FileID, song.FileType = nil, nil
	default:
		h.reply(ctx, chatID, "Send an audio or video file, or 'delete' to clear it.")
		return
	}

	if err := h.songs.Update(ctx, song); err != nil {
		h.logger.WithError(err).Error("Failed to update song")
		h.failNotify(ctx, chatID)
		return
	}
	h.showEditMenu(ctx, chatID, song, payload)
}

func (h *Handler) loadEditSong(ctx context.Context, chatID int64, payload *session.Payload) (*models.Song, error) {
	song, err := h.songs.GetByID(ctx, payload.Wizard.EditSongID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.clearSession(ctx, chatID)
			h.reply(ctx, chatID, "🔎 The song being edited no longer exists.")
			h.showAdminPanel(ctx, chatID)
			return nil, err
		}
		h.logger.WithError(err).Error("Failed to load song")
		h.failNotify(ctx, chatID)
		return nil, err
	}
	return song, nil
}

// startDeleteSong opens the deletion flow.
func (h *Handler) startDeleteSong(ctx context.Context, chatID int64) {
	payload := &session.Payload{Wizard: &session.WizardData{}}
	if !h.setSession(ctx, chatID, session.StateEnterDeleteTitle, payload) {
		return
	}
	h.replyMenu(ctx, chatID, "🗑 Enter the title of the song to delete:", cancelKeyboard())
}

func (h *Handler) processDeleteLookup(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	song, err := h.songs.GetByTitle(ctx, text)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.clearSession(ctx, chatID)
		h.reply(ctx, chatID, "🔎 No song with that title.")
		h.showAdminPanel(ctx, chatID)
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to look up song")
		h.failNotify(ctx, chatID)
		return
	}

	payload.Wizard.EditSongID = song.ID
	payload.Wizard.Title = song.Title
	if !h.setSession(ctx, chatID, session.StateConfirmDelete, payload) {
		return
	}
	h.replyKeyboard(ctx, chatID,
		songCaption(song)+"\n⚠️ Delete this song? Wishlist entries and genre links go with it.",
		deleteConfirmKeyboard())
}

func (h *Handler) onDeleteDecision(ctx context.Context, cb *models.CallbackQuery, user *models.User, payload *session.Payload, confirm bool) {
	chatID := cb.Message.Chat.Id

	if !confirm {
		h.clearSession(ctx, chatID)
		h.answer(ctx, cb.Id, "")
		h.showAdminPanel(ctx, chatID)
		return
	}

	if err := h.songs.Delete(ctx, payload.Wizard.EditSongID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.clearSession(ctx, chatID)
			h.answer(ctx, cb.Id, "")
			h.reply(ctx, chatID, "🔎 The song is already gone.")
			h.showAdminPanel(ctx, chatID)
			return
		}
		h.logger.WithError(err).Error("Failed to delete song")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}

	h.users.LogView(ctx, user.ID, payload.Wizard.Title, models.ActionDelete)
	h.clearSession(ctx, chatID)
	h.answer(ctx, cb.Id, "🗑 Deleted")
	h.reply(ctx, chatID, "✅ Song deleted.")
	h.showAdminPanel(ctx, chatID)
}
