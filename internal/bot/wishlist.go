package bot

import (
	"context"
	"errors"
	"songshop/internal/models"
	"songshop/internal/repository"
	"songshop/internal/session"
)

// startWishlist enters the browsing state over the user's wishlist
// instead of a filter result set.
func (h *Handler) startWishlist(ctx context.Context, chatID int64, user *models.User) {
	ids, err := h.users.WishlistSongIDs(ctx, user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load wishlist")
		h.failNotify(ctx, chatID)
		return
	}
	if len(ids) == 0 {
		h.clearSession(ctx, chatID)
		h.replyMenu(ctx, chatID, "🧺 Your wishlist is empty.", mainMenuKeyboard(user.IsStaff))
		return
	}

	browse := &session.BrowseData{Wishlist: true, SongIDs: ids}
	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}

	h.reply(ctx, chatID, "🧺 Your wishlist:")
	h.sendCurrentWishlistSong(ctx, chatID, browse)
}

func (h *Handler) onWishNavigate(ctx context.Context, cb *models.CallbackQuery, browse *session.BrowseData, forward bool) {
	chatID := cb.Message.Chat.Id

	if !browse.Wishlist || len(browse.SongIDs) == 0 {
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
	h.sendCurrentWishlistSong(ctx, chatID, browse)
}

// onWishRemove drops the entry, logs the removal, re-clamps the cursor and
// clears the whole browsing state when the set runs empty.
func (h *Handler) onWishRemove(ctx context.Context, cb *models.CallbackQuery, user *models.User, browse *session.BrowseData) {
	chatID := cb.Message.Chat.Id

	if !browse.Wishlist || len(browse.SongIDs) == 0 {
		h.expired(ctx, cb)
		return
	}

	idx := browse.Index
	songID := browse.SongIDs[idx]

	if err := h.users.RemoveFromWishlist(ctx, user.ID, songID); err != nil {
		h.logger.WithError(err).Error("Failed to remove from wishlist")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}

	if song, err := h.songs.GetByID(ctx, songID); err == nil {
		h.users.LogView(ctx, user.ID, song.Title, models.ActionRemove)
	}

	browse.SongIDs = append(browse.SongIDs[:idx], browse.SongIDs[idx+1:]...)
	if len(browse.SongIDs) == 0 {
		h.clearSession(ctx, chatID)
		h.answer(ctx, cb.Id, "🗑 Removed")
		h.deleteMessage(ctx, chatID, cb.Message.MessageId)
		h.replyMenu(ctx, chatID, "🧺 Your wishlist is empty.", mainMenuKeyboard(user.IsStaff))
		return
	}

	browse.Index = idx % len(browse.SongIDs)
	if !h.setSession(ctx, chatID, session.StateBrowsing, &session.Payload{Browse: browse}) {
		return
	}

	h.answer(ctx, cb.Id, "🗑 Removed")
	h.deleteMessage(ctx, chatID, cb.Message.MessageId)
	h.sendCurrentWishlistSong(ctx, chatID, browse)
}

// sendCurrentWishlistSong renders the wishlist cursor position. Unlike the
// catalog, wishlist browsing does not log "view" events.
func (h *Handler) sendCurrentWishlistSong(ctx context.Context, chatID int64, browse *session.BrowseData) {
	songID := browse.SongIDs[browse.Index]

	song, err := h.songs.GetByID(ctx, songID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.reply(ctx, chatID, "🔎 Song not found.")
			return
		}
		h.logger.WithError(err).Error("Failed to load song")
		h.failNotify(ctx, chatID)
		return
	}

	h.sendSongCard(ctx, chatID, song, wishlistNavKeyboard(song.Lyrics != nil))
}

// onDownloadLyrics works from both catalog and wishlist browsing.
func (h *Handler) onDownloadLyrics(ctx context.Context, cb *models.CallbackQuery, browse *session.BrowseData) {
	chatID := cb.Message.Chat.Id

	if len(browse.SongIDs) == 0 {
		h.expired(ctx, cb)
		return
	}

	song, err := h.songs.GetByID(ctx, browse.SongIDs[browse.Index])
	if err != nil {
		h.logger.WithError(err).Error("Failed to load song")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	if song.Lyrics == nil {
		h.answer(ctx, cb.Id, "🔇 No lyrics available")
		return
	}

	caption := "📄 Lyrics: <b>" + song.Title + "</b>"
	if err := h.sender.SendDocument(ctx, chatID, song.Title+".txt", []byte(*song.Lyrics), caption); err != nil {
		h.logger.WithError(err).Error("Failed to send lyrics")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	h.answer(ctx, cb.Id, "")
}
