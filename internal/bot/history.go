package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"songshop/internal/models"
	"songshop/internal/repository"
	"songshop/internal/session"
	"strings"
	"time"
	"unicode"
)

const historyPageSize = 20

// startUserHistory opens the admin history viewer by asking for a user.
func (h *Handler) startUserHistory(ctx context.Context, chatID int64) {
	payload := &session.Payload{History: &session.HistoryData{}}
	if !h.setSession(ctx, chatID, session.StateEnterUsername, payload) {
		return
	}
	h.replyMenu(ctx, chatID, "📜 Enter a username or numeric user id:", cancelKeyboard())
}

func (h *Handler) processHistoryLookup(ctx context.Context, chatID int64, text string, payload *session.Payload) {
	if payload.History == nil {
		h.clearSession(ctx, chatID)
		return
	}

	user, err := h.lookupHistoryUser(ctx, text)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.clearSession(ctx, chatID)
		h.reply(ctx, chatID, "🔎 No user found for "+text+".")
		h.showAdminPanel(ctx, chatID)
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to look up user")
		h.failNotify(ctx, chatID)
		return
	}

	payload.History.UserID = user.ID
	payload.History.Page = 0
	if !h.setSession(ctx, chatID, session.StateHistoryView, payload) {
		return
	}

	text, kb, err := h.renderHistory(ctx, payload.History)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history")
		h.failNotify(ctx, chatID)
		return
	}
	h.replyKeyboard(ctx, chatID, text, kb)
}

// lookupHistoryUser tries a username lookup first, then falls back to
// treating all-digit input as a raw user id.
func (h *Handler) lookupHistoryUser(ctx context.Context, input string) (*models.User, error) {
	query := strings.TrimPrefix(strings.TrimSpace(input), "@")

	user, err := h.users.GetByUsername(ctx, query)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if query != "" && isDigits(query) {
		return h.users.GetByID(ctx, query)
	}
	return nil, repository.ErrNotFound
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// renderHistory builds one newest-first page of the user's event log.
func (h *Handler) renderHistory(ctx context.Context, hist *session.HistoryData) (string, *models.InlineKeyboardMarkup, error) {
	records, err := h.users.History(ctx, hist.UserID)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "📭 No history for this user yet.", historyKeyboard(0, 0), nil
	}

	lastPage := (len(records) - 1) / historyPageSize
	if hist.Page > lastPage {
		hist.Page = lastPage
	}
	if hist.Page < 0 {
		hist.Page = 0
	}

	start := hist.Page * historyPageSize
	end := start + historyPageSize
	if end > len(records) {
		end = len(records)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📜 History for user %s (page %d/%d):\n\n", hist.UserID, hist.Page+1, lastPage+1)
	for _, rec := range records[start:end] {
		fmt.Fprintf(&b, "%s  %s  %s\n",
			rec.ViewedAt.Format("2006-01-02 15:04"), rec.Action, rec.SongTitle)
	}
	return b.String(), historyKeyboard(hist.Page, lastPage), nil
}

func (h *Handler) onHistoryPage(ctx context.Context, cb *models.CallbackQuery, payload *session.Payload, forward bool, messageID int) {
	chatID := cb.Message.Chat.Id
	hist := payload.History

	if forward {
		hist.Page++
	} else {
		hist.Page--
	}

	text, kb, err := h.renderHistory(ctx, hist)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	if !h.setSession(ctx, chatID, session.StateHistoryView, payload) {
		return
	}

	h.answer(ctx, cb.Id, "")
	if err := h.sender.EditMessageText(ctx, chatID, messageID, text, kb); err != nil {
		h.logger.WithError(err).Warn("Failed to edit history page")
	}
}

// onHistoryExport sends the user's complete event log as a CSV document.
func (h *Handler) onHistoryExport(ctx context.Context, cb *models.CallbackQuery, hist *session.HistoryData) {
	chatID := cb.Message.Chat.Id

	records, err := h.users.History(ctx, hist.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}
	if len(records) == 0 {
		h.answerAlert(ctx, cb.Id, "Nothing to export.")
		return
	}

	content, err := historyCSV(records)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode history")
		h.answer(ctx, cb.Id, "")
		h.failNotify(ctx, chatID)
		return
	}

	h.answer(ctx, cb.Id, "")
	filename := "history_" + hist.UserID + ".csv"
	if err := h.sender.SendDocument(ctx, chatID, filename, content, "📜 Full history export"); err != nil {
		h.logger.WithError(err).Error("Failed to send export")
		h.failNotify(ctx, chatID)
	}
}

func historyCSV(records []models.ViewHistory) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"timestamp", "action", "song_title"}); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{
			rec.ViewedAt.Format(time.RFC3339),
			string(rec.Action),
			rec.SongTitle,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
