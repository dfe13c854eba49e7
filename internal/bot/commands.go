package bot

import (
	"context"
	"fmt"
	"songshop/internal/models"
	"songshop/internal/session"
)

func (h *Handler) showMainMenu(ctx context.Context, chatID int64, user *models.User) {
	h.clearSession(ctx, chatID)

	welcome := "👋 Welcome to the song shop!\n\n" +
		"🎶 Browse the catalog, listen to demos and wishlist the songs you " +
		"want to buy — we will reach out to arrange the purchase.\n\n" +
		"Tap <b>" + btnCatalog + "</b> below to start 👇"

	h.replyMenu(ctx, chatID, welcome, mainMenuKeyboard(user.IsStaff))
}

func (h *Handler) showHelp(ctx context.Context, chatID int64, user *models.User) {
	help := "ℹ️ <b>How this bot works</b>\n\n" +
		"🎵 Browse songs by type, tempo and genre\n" +
		"❤️ Like a song to add it to your wishlist\n" +
		"🛒 We contact you about every song in your wishlist\n\n" +
		fmt.Sprintf("📨 Questions or a purchase in mind? Reach us at %s\n\n", h.supportContact) +
		"📌 Commands:\n" +
		"/start — main menu\n" +
		"/catalog — song catalog\n" +
		"/wishlist — your wishlist\n" +
		"/cancel — cancel the current action"

	h.replyMenu(ctx, chatID, help, mainMenuKeyboard(user.IsStaff))
}

func (h *Handler) showAdminPanel(ctx context.Context, chatID int64) {
	h.clearSession(ctx, chatID)

	text := "🔐 <b>Admin panel</b>\n\n" +
		"🛠 Manage the catalog and inspect user activity.\n" +
		"👇 Pick an action:"

	h.replyMenu(ctx, chatID, text, adminPanelKeyboard())
}

func (h *Handler) handleCancel(ctx context.Context, chatID int64, user *models.User, state session.State) {
	if state == session.StateIdle {
		h.reply(ctx, chatID, "Nothing to cancel.")
		return
	}

	h.clearSession(ctx, chatID)
	h.reply(ctx, chatID, "🚫 Action cancelled.")

	if user.IsStaff {
		h.showAdminPanel(ctx, chatID)
		return
	}
	h.showMainMenu(ctx, chatID, user)
}
