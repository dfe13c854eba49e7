package bot

import (
	"context"
	"songshop/internal/models"
	"songshop/internal/services"
	"songshop/internal/session"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

type Handler struct {
	songs          *services.SongService
	genres         *services.GenreService
	users          *services.UserService
	sessions       session.Store
	sender         services.Sender
	supportContact string
	logger         *logrus.Logger
}

func NewHandler(
	songs *services.SongService,
	genres *services.GenreService,
	users *services.UserService,
	sessions session.Store,
	sender services.Sender,
	supportContact string,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		songs:          songs,
		genres:         genres,
		users:          users,
		sessions:       sessions,
		sender:         sender,
		supportContact: supportContact,
		logger:         logger,
	}
}

// ProcessUpdate runs one inbound action to completion: resolve the user,
// load the conversation state, dispatch, render.
func (h *Handler) ProcessUpdate(ctx context.Context, update *models.Update) {
	var (
		tgUser models.TgUser
		chatID int64
	)
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		tgUser = update.CallbackQuery.From
		chatID = update.CallbackQuery.Message.Chat.Id
	case update.Message != nil:
		tgUser = update.Message.From
		chatID = update.Message.Chat.Id
	default:
		return
	}

	username := tgUser.Username
	if username == "" {
		username = "user_" + strconv.FormatInt(tgUser.Id, 10)
	}

	user, err := h.users.GetOrCreate(ctx, strconv.FormatInt(tgUser.Id, 10), username)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve user")
		h.failNotify(ctx, chatID)
		return
	}

	state, payload, err := h.sessions.Get(ctx, chatID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load session")
		h.failNotify(ctx, chatID)
		return
	}

	if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery, user, state, payload)
		return
	}
	h.handleMessage(ctx, update.Message, user, state, payload)
}

func (h *Handler) handleMessage(ctx context.Context, msg *models.Message, user *models.User, state session.State, payload *session.Payload) {
	chatID := msg.Chat.Id
	text := strings.TrimSpace(msg.Text)

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"state":   state,
	}).Info("Processing message")

	switch {
	case text == "/start" || text == btnMainMenu:
		h.showMainMenu(ctx, chatID, user)
	case text == "/help":
		h.showHelp(ctx, chatID, user)
	case text == "/cancel" || text == btnCancel:
		h.handleCancel(ctx, chatID, user, state)
	case text == "/catalog" || text == btnCatalog:
		h.startCatalog(ctx, chatID)
	case text == "/wishlist" || text == btnWishlist:
		h.startWishlist(ctx, chatID, user)
	case user.IsStaff && text == btnAdminPanel:
		h.showAdminPanel(ctx, chatID)
	case user.IsStaff && text == btnAddSong:
		h.startAddSong(ctx, chatID)
	case user.IsStaff && text == btnEditSong:
		h.startEditSong(ctx, chatID)
	case user.IsStaff && text == btnDeleteSong:
		h.startDeleteSong(ctx, chatID)
	case user.IsStaff && text == btnUserHistory:
		h.startUserHistory(ctx, chatID)
	default:
		h.dispatchStateMessage(ctx, msg, user, state, payload)
	}
}

// dispatchStateMessage routes free text by the conversation's current state.
func (h *Handler) dispatchStateMessage(ctx context.Context, msg *models.Message, user *models.User, state session.State, payload *session.Payload) {
	chatID := msg.Chat.Id
	text := strings.TrimSpace(msg.Text)

	if state != session.StateIdle && !user.IsStaff && state != session.StateBrowsing {
		// A non-staff user cannot be inside an admin flow; their stale
		// state is dropped rather than trusted.
		h.clearSession(ctx, chatID)
		h.showMainMenu(ctx, chatID, user)
		return
	}

	switch state {
	case session.StateEnterTitle:
		h.processTitle(ctx, chatID, text, payload)
	case session.StateSelectType, session.StateSelectTempo:
		// Only the presented options advance these states.
		h.reply(ctx, chatID, "👆 Use the buttons above to choose.")
	case session.StateEnterGenres:
		h.processGenres(ctx, chatID, text, payload)
	case session.StateEnterLyrics:
		h.processLyrics(ctx, chatID, text, payload)
	case session.StateUploadMedia:
		h.processMediaMessage(ctx, msg, payload)
	case session.StateConfirm:
		h.processConfirm(ctx, chatID, text, user, payload)
	case session.StateEditSelectTitle:
		h.processEditLookup(ctx, chatID, text, payload)
	case session.StateEditTitle:
		h.processEditTitle(ctx, chatID, text, payload)
	case session.StateEditGenres:
		h.processEditGenres(ctx, chatID, text, payload)
	case session.StateEditLyrics:
		h.processEditLyrics(ctx, chatID, text, payload)
	case session.StateEditMedia:
		h.processEditMedia(ctx, msg, payload)
	case session.StateEnterDeleteTitle:
		h.processDeleteLookup(ctx, chatID, text, payload)
	case session.StateEnterUsername:
		h.processHistoryLookup(ctx, chatID, text, payload)
	default:
		h.reply(ctx, chatID, "🤔 Unknown command. Send /start to see the menu.")
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *models.CallbackQuery, user *models.User, state session.State, payload *session.Payload) {
	chatID := cb.Message.Chat.Id
	messageID := cb.Message.MessageId

	cmd, err := ParseCommand(cb.Data)
	if err != nil {
		h.logger.WithError(err).Warn("Dropping callback")
		h.answer(ctx, cb.Id, "")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"state":   state,
		"data":    cb.Data,
	}).Info("Processing callback")

	switch cmd.Kind {
	case KindMainMenu:
		h.clearSession(ctx, chatID)
		h.showMainMenu(ctx, chatID, user)
		h.answer(ctx, cb.Id, "")

	// Catalog browsing
	case KindSelectType:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onSelectType(ctx, cb, b, cmd.Arg)
		})
	case KindViewAll:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onViewAll(ctx, cb, user, b)
		})
	case KindRefine:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onRefine(ctx, cb)
		})
	case KindSelectTempo:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onSelectTempo(ctx, cb, b, cmd.Arg)
		})
	case KindToggleGenre:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onToggleGenre(ctx, cb, b, cmd.Arg)
		})
	case KindGenreDone:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onGenreDone(ctx, cb, user, b)
		})
	case KindNavPrev, KindNavNext:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onNavigate(ctx, cb, user, b, cmd.Kind == KindNavNext)
		})
	case KindNavLike:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onLike(ctx, cb, user, b)
		})
	case KindNavType, KindNavTempo, KindNavGenre:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onRestartLevel(ctx, cb, b, cmd.Kind)
		})
	case KindWishPrev, KindWishNext:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onWishNavigate(ctx, cb, b, cmd.Kind == KindWishNext)
		})
	case KindWishRemove:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onWishRemove(ctx, cb, user, b)
		})
	case KindDownloadLyrics:
		h.requireBrowsing(ctx, cb, state, payload, func(b *session.BrowseData) {
			h.onDownloadLyrics(ctx, cb, b)
		})

	// Admin wizard
	case KindWizardType:
		h.requireStaff(ctx, cb, user, func() {
			h.onWizardType(ctx, cb, state, payload, cmd.Arg)
		})
	case KindWizardTempo:
		h.requireStaff(ctx, cb, user, func() {
			h.onWizardTempo(ctx, cb, state, payload, cmd.Arg)
		})
	case KindSkipMedia:
		h.requireStaff(ctx, cb, user, func() {
			if state != session.StateUploadMedia || payload.Wizard == nil {
				h.expired(ctx, cb)
				return
			}
			payload.Wizard.FileID = nil
			payload.Wizard.FileType = ""
			h.answer(ctx, cb.Id, "")
			h.showConfirmation(ctx, chatID, payload)
		})
	case KindEditField, KindEditDone:
		h.requireStaff(ctx, cb, user, func() {
			if state != session.StateEditSelectField || payload.Wizard == nil {
				h.expired(ctx, cb)
				return
			}
			if cmd.Kind == KindEditDone {
				h.clearSession(ctx, chatID)
				h.answer(ctx, cb.Id, "")
				h.showAdminPanel(ctx, chatID)
				return
			}
			h.onEditField(ctx, cb, payload, cmd.Arg)
		})
	case KindDeleteYes, KindDeleteNo:
		h.requireStaff(ctx, cb, user, func() {
			if state != session.StateConfirmDelete || payload.Wizard == nil {
				h.expired(ctx, cb)
				return
			}
			h.onDeleteDecision(ctx, cb, user, payload, cmd.Kind == KindDeleteYes)
		})

	// Admin history viewer
	case KindHistPrev, KindHistNext:
		h.requireStaff(ctx, cb, user, func() {
			if state != session.StateHistoryView || payload.History == nil {
				h.expired(ctx, cb)
				return
			}
			h.onHistoryPage(ctx, cb, payload, cmd.Kind == KindHistNext, messageID)
		})
	case KindHistExport:
		h.requireStaff(ctx, cb, user, func() {
			if state != session.StateHistoryView || payload.History == nil {
				h.expired(ctx, cb)
				return
			}
			h.onHistoryExport(ctx, cb, payload.History)
		})

	default:
		h.answer(ctx, cb.Id, "")
	}
}

// requireBrowsing runs fn only when the chat is in the browsing state with
// a payload; stale buttons from a finished session get a hint instead.
func (h *Handler) requireBrowsing(ctx context.Context, cb *models.CallbackQuery, state session.State, payload *session.Payload, fn func(*session.BrowseData)) {
	if state != session.StateBrowsing || payload.Browse == nil {
		h.expired(ctx, cb)
		return
	}
	fn(payload.Browse)
}

func (h *Handler) requireStaff(ctx context.Context, cb *models.CallbackQuery, user *models.User, fn func()) {
	if !user.IsStaff {
		h.answerAlert(ctx, cb.Id, "Admins only.")
		return
	}
	fn()
}

func (h *Handler) expired(ctx context.Context, cb *models.CallbackQuery) {
	h.answerAlert(ctx, cb.Id, "This menu has expired. Send /start to begin again.")
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text, nil); err != nil {
		h.logger.WithError(err).Error("Failed to send message")
	}
}

func (h *Handler) replyKeyboard(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) {
	if err := h.sender.SendMessage(ctx, chatID, text, kb); err != nil {
		h.logger.WithError(err).Error("Failed to send message")
	}
}

func (h *Handler) replyMenu(ctx context.Context, chatID int64, text string, kb *models.ReplyKeyboardMarkup) {
	if err := h.sender.SendReplyKeyboard(ctx, chatID, text, kb); err != nil {
		h.logger.WithError(err).Error("Failed to send message")
	}
}

func (h *Handler) answer(ctx context.Context, callbackID, text string) {
	if err := h.sender.AnswerCallback(ctx, callbackID, text, false); err != nil {
		h.logger.WithError(err).Error("Failed to answer callback")
	}
}

func (h *Handler) answerAlert(ctx context.Context, callbackID, text string) {
	if err := h.sender.AnswerCallback(ctx, callbackID, text, true); err != nil {
		h.logger.WithError(err).Error("Failed to answer callback")
	}
}

func (h *Handler) failNotify(ctx context.Context, chatID int64) {
	h.reply(ctx, chatID, "⚠️ Something went wrong. Please try again.")
}

func (h *Handler) setSession(ctx context.Context, chatID int64, state session.State, payload *session.Payload) bool {
	if err := h.sessions.Set(ctx, chatID, state, payload); err != nil {
		h.logger.WithError(err).Error("Failed to save session")
		h.failNotify(ctx, chatID)
		return false
	}
	return true
}

func (h *Handler) clearSession(ctx context.Context, chatID int64) {
	if err := h.sessions.Clear(ctx, chatID); err != nil {
		h.logger.WithError(err).Error("Failed to clear session")
	}
}

func (h *Handler) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if err := h.sender.DeleteMessage(ctx, chatID, messageID); err != nil {
		h.logger.WithError(err).Warn("Failed to delete message")
	}
}
