package bot

import (
	"context"
	"songshop/internal/models"
	"songshop/internal/session"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSongFullWalk(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	send := func(text string) {
		f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", text))
	}
	press := func(data string) {
		f.handler.ProcessUpdate(ctx, callbackUpdate(chatID, tgID, data))
	}

	send(btnAddSong)
	state, _ := f.state(t, chatID)
	require.Equal(t, session.StateEnterTitle, state)

	send("Midnight")
	state, payload := f.state(t, chatID)
	require.Equal(t, session.StateSelectType, state)
	assert.Equal(t, "Midnight", payload.Wizard.Title)

	press("wtype:female")
	state, _ = f.state(t, chatID)
	require.Equal(t, session.StateSelectTempo, state)

	press("wtempo:slow")
	state, _ = f.state(t, chatID)
	require.Equal(t, session.StateEnterGenres, state)

	send("Rock, Ballad")
	state, payload = f.state(t, chatID)
	require.Equal(t, session.StateEnterLyrics, state)
	assert.Equal(t, []string{"rock", "ballad"}, payload.Wizard.Genres)

	send("la la la")
	state, _ = f.state(t, chatID)
	require.Equal(t, session.StateUploadMedia, state)

	press("skip_media")
	state, _ = f.state(t, chatID)
	require.Equal(t, session.StateConfirm, state)

	send(btnConfirm)
	state, _ = f.state(t, chatID)
	assert.Equal(t, session.StateIdle, state)

	song, err := f.songs.GetByTitle(ctx, "Midnight")
	require.NoError(t, err)
	assert.Equal(t, models.TypeFemale, song.Type)
	assert.Equal(t, models.TempoSlow, song.Tempo)
	require.NotNil(t, song.Lyrics)
	assert.Equal(t, "la la la", *song.Lyrics)
	assert.Nil(t, song.FileID)
	assert.Equal(t, "100", song.AuthorID)
	assert.True(t, song.HasGenre("rock"))
	assert.True(t, song.HasGenre("ballad"))
}

func TestLyricsDashSentinelSkips(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateEnterLyrics, &session.Payload{
		Wizard: &session.WizardData{Title: "Midnight", Type: "female", Tempo: "slow", Genres: []string{"rock"}},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", "-"))

	state, payload := f.state(t, chatID)
	require.Equal(t, session.StateUploadMedia, state)
	assert.Nil(t, payload.Wizard.Lyrics)

	f.handler.ProcessUpdate(ctx, callbackUpdate(chatID, tgID, "skip_media"))
	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", btnConfirm))

	song, err := f.songs.GetByTitle(ctx, "Midnight")
	require.NoError(t, err)
	assert.Nil(t, song.Lyrics)
	assert.True(t, song.HasGenre("rock"))
}

func TestAddSongWithVideo(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateUploadMedia, &session.Payload{
		Wizard: &session.WizardData{Title: "Midnight", Type: "duet", Tempo: "dance"},
	}))

	update := textUpdate(chatID, tgID, "tester", "")
	update.Message.Video = &models.Video{FileId: "vid123"}
	f.handler.ProcessUpdate(ctx, update)

	state, payload := f.state(t, chatID)
	require.Equal(t, session.StateConfirm, state)
	require.NotNil(t, payload.Wizard.FileID)
	assert.Equal(t, "vid123", *payload.Wizard.FileID)
	assert.Equal(t, string(models.FileVideo), payload.Wizard.FileType)

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", btnConfirm))

	song, err := f.songs.GetByTitle(ctx, "Midnight")
	require.NoError(t, err)
	require.NotNil(t, song.FileID)
	assert.Equal(t, "vid123", *song.FileID)
	require.NotNil(t, song.FileType)
	assert.Equal(t, models.FileVideo, *song.FileType)
}

func TestTitleTooLongNoTransition(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateEnterTitle, &session.Payload{
		Wizard: &session.WizardData{},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", strings.Repeat("x", 151)))

	state, payload := f.state(t, chatID)
	assert.Equal(t, session.StateEnterTitle, state)
	assert.Empty(t, payload.Wizard.Title)
	assert.Empty(t, f.songs.songs)
}

func TestTitleDuplicateRejectedAtEntry(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	f.seedSong(t, "Midnight", models.TypeMale, models.TempoDance)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateEnterTitle, &session.Payload{
		Wizard: &session.WizardData{},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", "Midnight"))

	state, _ := f.state(t, chatID)
	assert.Equal(t, session.StateEnterTitle, state)
	assert.Contains(t, f.sender.lastText(), "already exists")
}

func TestGenreSubmissionOverCapRejected(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateEnterGenres, &session.Payload{
		Wizard: &session.WizardData{Title: "Midnight", Type: "female", Tempo: "slow"},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", "a, b, c, d"))

	state, payload := f.state(t, chatID)
	assert.Equal(t, session.StateEnterGenres, state)
	assert.Empty(t, payload.Wizard.Genres)
	// Nothing was created: the cap check happens before any resolution.
	assert.Empty(t, f.genres.byTitle)
}

func TestGenreTooLongAbortsButEarlierEntriesPersist(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateEnterGenres, &session.Payload{
		Wizard: &session.WizardData{Title: "Midnight", Type: "female", Tempo: "slow"},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", "rock, "+strings.Repeat("y", 151)))

	state, payload := f.state(t, chatID)
	assert.Equal(t, session.StateEnterGenres, state)
	assert.Empty(t, payload.Wizard.Genres)

	// Entries are resolved in order, so "rock" was created before the
	// over-long entry aborted the submission.
	_, ok := f.genres.byTitle["rock"]
	assert.True(t, ok)
}

func TestConfirmRequiresExplicitButton(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateConfirm, &session.Payload{
		Wizard: &session.WizardData{Title: "Midnight", Type: "female", Tempo: "slow"},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", "yes please"))

	state, _ := f.state(t, chatID)
	assert.Equal(t, session.StateConfirm, state)
	assert.Empty(t, f.songs.songs)
}

func TestNonStaffCannotUseWizardCallbacks(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", false)

	f.handler.ProcessUpdate(context.Background(), callbackUpdate(chatID, tgID, "wtype:female"))

	answer := f.sender.lastAnswer()
	assert.True(t, answer.alert)
	assert.Contains(t, answer.text, "Admins only")
}

func TestNonStaffStaleAdminStateDropped(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", false)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateEnterTitle, &session.Payload{
		Wizard: &session.WizardData{},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", "Midnight"))

	state, _ := f.state(t, chatID)
	assert.Equal(t, session.StateIdle, state)
	assert.Empty(t, f.songs.songs)
}

func TestCancelInsideWizard(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "100", "tester", true)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, chatID, session.StateEnterGenres, &session.Payload{
		Wizard: &session.WizardData{Title: "Midnight"},
	}))

	f.handler.ProcessUpdate(ctx, textUpdate(chatID, tgID, "tester", "/cancel"))

	state, _ := f.state(t, chatID)
	assert.Equal(t, session.StateIdle, state)
	assert.Empty(t, f.songs.songs)
}
