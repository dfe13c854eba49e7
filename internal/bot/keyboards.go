package bot

import "songshop/internal/models"

// Reply-keyboard button labels double as message triggers; the dispatcher
// matches against them verbatim.
const (
	btnMainMenu    = "🏠 Main menu"
	btnCatalog     = "🎵 Song catalog"
	btnWishlist    = "🛒 Wishlist"
	btnAdminPanel  = "🔐 Admin panel"
	btnAddSong     = "🎵 Add song"
	btnEditSong    = "✏️ Edit song"
	btnDeleteSong  = "🗑 Delete song"
	btnUserHistory = "📜 User history"
	btnConfirm     = "✅ Confirm"
	btnCancel      = "❌ Cancel"
)

var typeLabels = map[models.SongType]string{
	models.TypeUniversal: "Universal",
	models.TypeMale:      "Male",
	models.TypeFemale:    "Female",
	models.TypeDuet:      "Duet",
	models.TypeChildren:  "Children",
}

var tempoLabels = map[models.SongTempo]string{
	models.TempoDance:    "Dance",
	models.TempoMidTempo: "Mid-tempo",
	models.TempoSlow:     "Slow",
}

func mainMenuKeyboard(isStaff bool) *models.ReplyKeyboardMarkup {
	rows := [][]models.KeyboardButton{
		{{Text: btnCatalog}, {Text: btnWishlist}},
	}
	if isStaff {
		rows = append(rows, []models.KeyboardButton{{Text: btnAdminPanel}})
	}
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

func adminPanelKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: btnMainMenu}},
			{{Text: btnAddSong}, {Text: btnEditSong}, {Text: btnDeleteSong}},
			{{Text: btnUserHistory}},
		},
		ResizeKeyboard: true,
	}
}

func cancelKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard:       [][]models.KeyboardButton{{{Text: btnCancel}}},
		ResizeKeyboard: true,
	}
}

func confirmKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard:       [][]models.KeyboardButton{{{Text: btnConfirm}, {Text: btnCancel}}},
		ResizeKeyboard: true,
	}
}

// typeKeyboard renders one button per song type; prefix selects between
// the browse flow ("type") and the wizard ("wtype").
func typeKeyboard(prefix string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, t := range models.SongTypes() {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: typeLabels[t], CallbackData: prefix + ":" + string(t)},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func tempoKeyboard(prefix string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, t := range models.SongTempos() {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: tempoLabels[t], CallbackData: prefix + ":" + string(t)},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func actionKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "▶️ Listen to all", CallbackData: "action:all"}},
			{{Text: "🎚 Pick tempo and genre", CallbackData: "action:filter"}},
		},
	}
}

func genreToggleKeyboard(all []models.Genre, selected []string) *models.InlineKeyboardMarkup {
	chosen := make(map[string]bool, len(selected))
	for _, title := range selected {
		chosen[title] = true
	}

	var rows [][]models.InlineKeyboardButton
	for _, g := range all {
		label := g.Title
		if chosen[g.Title] {
			label = "✅ " + label
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: label, CallbackData: "genre:" + g.Title},
		})
	}
	if len(selected) > 0 {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "✅ Done", CallbackData: "genre:done"},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func songNavKeyboard(hasLyrics bool) *models.InlineKeyboardMarkup {
	actions := []models.InlineKeyboardButton{
		{Text: "❤️ Like", CallbackData: "nav:like"},
	}
	if hasLyrics {
		actions = append([]models.InlineKeyboardButton{
			{Text: "📄 Download lyrics", CallbackData: "download:lyrics"},
		}, actions...)
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⬅️ Prev", CallbackData: "nav:prev"},
				{Text: "➡️ Next", CallbackData: "nav:next"},
			},
			{
				{Text: "🎚 Other tempo", CallbackData: "nav:tempo"},
				{Text: "🎭 Other genre", CallbackData: "nav:genre"},
				{Text: "🎵 Other type", CallbackData: "nav:type"},
			},
			actions,
		},
	}
}

func wishlistNavKeyboard(hasLyrics bool) *models.InlineKeyboardMarkup {
	actions := []models.InlineKeyboardButton{
		{Text: "🗑 Remove", CallbackData: "wish:remove"},
	}
	if hasLyrics {
		actions = append([]models.InlineKeyboardButton{
			{Text: "📄 Download lyrics", CallbackData: "download:lyrics"},
		}, actions...)
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⬅️", CallbackData: "wish:prev"},
				{Text: "➡️", CallbackData: "wish:next"},
			},
			actions,
			{{Text: "⬅️ Back to menu", CallbackData: "to_main"}},
		},
	}
}

func skipMediaKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "⏭ Skip", CallbackData: "skip_media"}},
		},
	}
}

func editFieldKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🎶 Title", CallbackData: "edit:title"},
				{Text: "🎚 Type", CallbackData: "edit:type"},
				{Text: "🎛 Tempo", CallbackData: "edit:tempo"},
			},
			{
				{Text: "🎭 Genres", CallbackData: "edit:genres"},
				{Text: "📝 Lyrics", CallbackData: "edit:lyrics"},
				{Text: "🎥 Media", CallbackData: "edit:media"},
			},
			{{Text: "✅ Done", CallbackData: "edit:done"}},
		},
	}
}

func deleteConfirmKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🗑 Delete", CallbackData: "del:confirm"},
				{Text: "❌ Cancel", CallbackData: "del:cancel"},
			},
		},
	}
}

func historyKeyboard(page, lastPage int) *models.InlineKeyboardMarkup {
	var nav []models.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, models.InlineKeyboardButton{Text: "⬅️ Prev", CallbackData: "hist:prev"})
	}
	if page < lastPage {
		nav = append(nav, models.InlineKeyboardButton{Text: "➡️ Next", CallbackData: "hist:next"})
	}

	rows := [][]models.InlineKeyboardButton{}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{{Text: "📥 Export CSV", CallbackData: "hist:export"}},
		[]models.InlineKeyboardButton{{Text: "⬅️ Back to menu", CallbackData: "to_main"}},
	)
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
