package bot

import (
	"context"
	"errors"
	"fmt"
	"songshop/internal/models"
	"songshop/internal/repository"
	"songshop/internal/services"
	"songshop/internal/session"

	"github.com/sirupsen/logrus"
)

const maxFilterGenres = 3

// startAddSong opens the song creation wizard.
func (h *Handler) startAddSong(ctx context.Context, chatID int64) {
	payload := &session.Payload{Wizard: &session.WizardData{}}
	if !h.setSession(ctx, chatID, session.StateEnterTitle, payload) {
		return
	}
	h.replyMenu(ctx, chatID, "🎶 Enter the song title:", cancelKeyboard())
}

// processTitle gates on length and uniqueness; a failure re-prompts in
// place without a transition.
func (h *Handler) processTitle(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	if err := services.ValidateSongTitle(text); err != nil {
		h.reply(ctx, chatID, "❌ "+err.Error())
		return
	}

	_, err := h.songs.GetByTitle(ctx, text)
	switch {
	case err == nil:
		h.reply(ctx, chatID, "❌ A song with this title already exists.")
		return
	case !errors.Is(err, repository.ErrNotFound):
		h.logger.WithError(err).Error("Failed to check title uniqueness")
		h.failNotify(ctx, chatID)
		return
	}

	payload.Wizard.Title = text
	if !h.setSession(ctx, chatID, session.StateSelectType, payload) {
		return
	}
	h.replyKeyboard(ctx, chatID, "🎚 Pick the song type:", typeKeyboard("wtype"))
}

// onWizardType serves both the creation chain and the edit sub-chain,
// branching on the current state.
func (h *Handler) onWizardType(ctx context.Context, cb *models.CallbackQuery, state session.State, payload *session.Payload, arg string) {
	chatID := cb.Message.Chat.Id

	songType, err := models.ParseSongType(arg)
	if err != nil {
		h.answerAlert(ctx, cb.Id, "Pick a type from the list.")
		return
	}

	switch {
	case state == session.StateSelectType && payload.Wizard != nil:
		payload.Wizard.Type = string(songType)
		if !h.setSession(ctx, chatID, session.StateSelectTempo, payload) {
			return
		}
		if err := h.sender.EditMessageText(ctx, chatID, cb.Message.MessageId, "🎛 Pick the tempo:", tempoKeyboard("wtempo")); err != nil {
			h.logger.WithError(err).Error("Failed to edit message")
		}
		h.answer(ctx, cb.Id, "")

	case state == session.StateEditType && payload.Wizard != nil:
		h.applyEdit(ctx, cb, payload, func(song *models.Song) {
			song.Type = songType
		})

	default:
		h.expired(ctx, cb)
	}
}

func (h *Handler) onWizardTempo(ctx context.Context, cb *models.CallbackQuery, state session.State, payload *session.Payload, arg string) {
	chatID := cb.Message.Chat.Id

	tempo, err := models.ParseSongTempo(arg)
	if err != nil {
		h.answerAlert(ctx, cb.Id, "Pick a tempo from the list.")
		return
	}

	switch {
	case state == session.StateSelectTempo && payload.Wizard != nil:
		payload.Wizard.Tempo = string(tempo)
		if !h.setSession(ctx, chatID, session.StateEnterGenres, payload) {
			return
		}
		h.answer(ctx, cb.Id, "")
		h.replyMenu(ctx, chatID,
			"🎭 Enter up to 3 genres separated by commas:\n"+
				"Example: rock, pop, electronic\n\n"+
				"⚠️ Unknown genres are created automatically",
			cancelKeyboard())

	case state == session.StateEditTempo && payload.Wizard != nil:
		h.applyEdit(ctx, cb, payload, func(song *models.Song) {
			song.Tempo = tempo
		})

	default:
		h.expired(ctx, cb)
	}
}

// processGenres resolves each entry via get-or-create in submission order.
// A too-long entry aborts the submission; genres already created by
// earlier entries of the same submission remain.
func (h *Handler) processGenres(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	titles, err := services.SplitGenreInput(text, maxFilterGenres)
	if err != nil {
		h.reply(ctx, chatID, "❌ "+capitalizeSentence(err.Error()))
		return
	}

	var resolved []string
	for _, title := range titles {
		if err := services.ValidateGenreTitle(title); err != nil {
			h.reply(ctx, chatID, fmt.Sprintf("❌ Genre name is too long: %s", title))
			return
		}
		genre, err := h.genres.GetOrCreate(ctx, title)
		if err != nil {
			h.logger.WithError(err).WithField("genre", title).Error("Failed to resolve genre")
			h.failNotify(ctx, chatID)
			return
		}
		resolved = append(resolved, genre.Title)
	}

	payload.Wizard.Genres = resolved
	if !h.setSession(ctx, chatID, session.StateEnterLyrics, payload) {
		return
	}
	h.replyMenu(ctx, chatID, "📝 Now send the lyrics (or '-' to skip):", cancelKeyboard())
}

func (h *Handler) processLyrics(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	if text == "-" {
		payload.Wizard.Lyrics = nil
	} else {
		lyrics := text
		payload.Wizard.Lyrics = &lyrics
	}

	if !h.setSession(ctx, chatID, session.StateUploadMedia, payload) {
		return
	}
	h.replyKeyboard(ctx, chatID, "🎥 Upload an audio or video file for the song:", skipMediaKeyboard())
}

// processMediaMessage accepts either attachment kind; anything else
// re-prompts without a transition.
func (h *Handler) processMediaMessage(ctx context.Context, msg *models.Message, payload *session.Payload) {
	chatID := msg.Chat.Id
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}

	switch {
	case msg.Video != nil:
		fileID := msg.Video.FileId
		payload.Wizard.FileID = &fileID
		payload.Wizard.FileType = string(models.FileVideo)
	case msg.Audio != nil:
		fileID := msg.Audio.FileId
		payload.Wizard.FileID = &fileID
		payload.Wizard.FileType = string(models.FileAudio)
	default:
		h.reply(ctx, chatID, "Send an audio or video file, or press Skip.")
		return
	}

	h.showConfirmation(ctx, chatID, payload)
}

func (h *Handler) showConfirmation(ctx context.Context, chatID int64, payload *session.Payload) {
	wizard := payload.Wizard

	lyricsNote := "not set"
	if wizard.Lyrics != nil {
		lyricsNote = "set"
	}
	mediaNote := "none"
	if wizard.FileID != nil {
		mediaNote = wizard.FileType
	}

	text := fmt.Sprintf(
		"📋 Check the details:\n\n"+
			"🎶 Title: %s\n"+
			"🎚 Type: %s\n"+
			"🎛 Tempo: %s\n"+
			"🎭 Genres: %s\n"+
			"📝 Lyrics: %s\n"+
			"🎥 Media: %s",
		wizard.Title,
		typeLabels[models.SongType(wizard.Type)],
		tempoLabels[models.SongTempo(wizard.Tempo)],
		joinTitles(wizard.Genres),
		lyricsNote,
		mediaNote,
	)

	if !h.setSession(ctx, chatID, session.StateConfirm, payload) {
		return
	}
	h.replyMenu(ctx, chatID, text, confirmKeyboard())
}

// processConfirm commits the collected form; anything but an explicit
// confirm re-prompts (cancel is handled globally).
func (h *Handler) processConfirm(ctx context.Context, chatID int64, text string, user *models.User, payload *session.Payload) {
	if payload.Wizard == nil {
		h.clearSession(ctx, chatID)
		return
	}
	if text != btnConfirm {
		h.reply(ctx, chatID, "Press ✅ Confirm to save the song or ❌ Cancel to discard it.")
		return
	}
	wizard := payload.Wizard

	songType, err := models.ParseSongType(wizard.Type)
	if err != nil {
		h.logger.WithError(err).Error("Corrupt wizard payload")
		h.clearSession(ctx, chatID)
		h.failNotify(ctx, chatID)
		return
	}
	tempo, err := models.ParseSongTempo(wizard.Tempo)
	if err != nil {
		h.logger.WithError(err).Error("Corrupt wizard payload")
		h.clearSession(ctx, chatID)
		h.failNotify(ctx, chatID)
		return
	}

	song := &models.Song{
		AuthorID: user.ID,
		Title:    wizard.Title,
		Lyrics:   wizard.Lyrics,
		FileID:   wizard.FileID,
		Type:     songType,
		Tempo:    tempo,
	}
	if wizard.FileID != nil {
		fileType := models.FileType(wizard.FileType)
		song.FileType = &fileType
	}

	created, err := h.songs.CreateWithGenres(ctx, song, wizard.Genres)
	switch {
	case errors.Is(err, repository.ErrConflict):
		h.reply(ctx, chatID, "❌ A song with this title already exists.")
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to create song")
		h.failNotify(ctx, chatID)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"song_id": created.ID,
		"title":   created.Title,
	}).Info("Song created")

	h.clearSession(ctx, chatID)
	h.reply(ctx, chatID, "✅ Song created!")
	h.showAdminPanel(ctx, chatID)
}

func joinTitles(titles []string) string {
	out := ""
	for i, t := range titles {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}

func capitalizeSentence(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
