package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readaloud/internal/settings"
)

func TestInterpreterFirstMatchWins(t *testing.T) {
	var ran []CommandKind
	var announced []string
	cmd := func(kind CommandKind, phrases ...string) Command {
		return Command{Kind: kind, Phrases: phrases, Run: func(rest string) string {
			ran = append(ran, kind)
			return rest
		}}
	}
	i := NewInterpreter([]Command{
		cmd(CmdSearch, "search for"),
		cmd(CmdNextPage, "next page", "next"),
	}, func(msg string) { announced = append(announced, msg) })

	assert.Equal(t, CmdSearch, i.Dispatch("Search For next page"))
	assert.Equal(t, []CommandKind{CmdSearch}, ran)
	assert.Equal(t, []string{"next page"}, announced)

	assert.Equal(t, CmdNextPage, i.Dispatch("go NEXT"))
	// the handler returned nothing so a generic acknowledgement is made
	assert.Equal(t, "Done", announced[1])

	assert.Equal(t, CmdNone, i.Dispatch("sing a song"))
	assert.Equal(t, []string{"next page", "Done", MsgNotRecognized}, announced)
}

func TestInterpreterFoldsCase(t *testing.T) {
	i := NewInterpreter([]Command{{Kind: CmdZoomIn, Phrases: []string{"zoom in"}, Run: func(string) string { return "ok" }}}, func(string) {})
	_, _, ok := i.Match("ZOOM IN")
	assert.True(t, ok)
	_, _, ok = i.Match("zoom")
	assert.False(t, ok)
}

func TestSearchForNextPageOpensSearch(t *testing.T) {
	f := newFixture(t, "one\ftwo")

	kind := f.session.Command("search for next page")
	assert.Equal(t, CmdSearch, kind)
	assert.Equal(t, []string{"next page"}, f.shell.searches)
	assert.Equal(t, 1, f.session.Pages().Current())
	assert.Equal(t, "Searching for next page", f.region.Last())
}

func TestEveryCommandAnnouncesExactlyOnce(t *testing.T) {
	inputs := map[string]CommandKind{
		"search for whales":  CmdSearch,
		"next page":          CmdNextPage,
		"next":               CmdNextPage,
		"previous page":      CmdPreviousPage,
		"go back":            CmdPreviousPage,
		"zoom in":            CmdZoomIn,
		"zoom out":           CmdZoomOut,
		"bookmark this":      CmdBookmark,
		"read aloud":         CmdReadAloud,
		"start reading":      CmdReadAloud,
		"stop reading":       CmdStopReading,
		"pause":              CmdPause,
		"pause reading":      CmdPause,
		"resume":             CmdResume,
		"resume reading":     CmdResume,
		"repeat page":        CmdRepeatPage,
		"loop reading":       CmdLoopReading,
		"continuous reading": CmdLoopReading,
		"faster reading":     CmdFaster,
		"slower reading":     CmdSlower,
		"toggle sidebar":     CmdToggleSidebar,
		"toggle theme":       CmdToggleTheme,
		"high contrast":      CmdHighContrast,
		"large text":         CmdLargeText,
		"focus mode":         CmdFocusMode,
		"offline mode":       CmdOfflineMode,
		"make me a sandwich": CmdNone,
		"":                   CmdNone,
	}

	for input, want := range inputs {
		t.Run(input, func(t *testing.T) {
			f := newFixture(t, "one\ftwo\fthree")
			before := len(f.region.Announcements())

			assert.Equal(t, want, f.session.Command(input))
			assert.Len(t, f.region.Announcements(), before+1)
		})
	}
}

func TestNavigationCommands(t *testing.T) {
	f := newFixture(t, "one\ftwo")

	f.session.Command("previous page")
	assert.Equal(t, "Already on the first page", f.region.Last())
	f.session.Command("next page")
	assert.Equal(t, "Page 2 of 2", f.region.Last())
	f.session.Command("next")
	assert.Equal(t, "Already on the last page", f.region.Last())
	f.session.Command("back")
	assert.Equal(t, 1, f.session.Pages().Current())
}

func TestNavigationDoesNotInterruptSpeech(t *testing.T) {
	f := newFixture(t, "one\ftwo")

	f.session.Command("read aloud")
	f.session.Command("next page")
	assert.Equal(t, Speaking, f.session.Speech().State())
	assert.Equal(t, 1, f.session.Speech().Origin().Page)
}

func TestBookmarkCommandToggles(t *testing.T) {
	f := newFixture(t, "one\ftwo")

	f.session.Command("bookmark")
	assert.Equal(t, "Bookmark added on page 1", f.region.Last())
	assert.True(t, f.session.Status().Bookmarked)

	f.session.Command("bookmark")
	assert.Equal(t, "Bookmark removed from page 1", f.region.Last())

	marks, err := f.notes.BookmarksFor("doc-1")
	require.NoError(t, err)
	assert.Empty(t, marks)
}

func TestPlaybackCommands(t *testing.T) {
	f := newFixture(t, "one\ftwo")

	f.session.Command("pause")
	assert.Equal(t, "Nothing is playing", f.region.Last())
	f.session.Command("start reading")
	assert.Equal(t, "Reading page 1", f.region.Last())
	f.session.Command("pause reading")
	assert.Equal(t, "Paused", f.region.Last())
	assert.Equal(t, Paused, f.session.Speech().State())
	f.session.Command("resume")
	assert.Equal(t, "Resumed", f.region.Last())
	f.session.Command("repeat page")
	assert.Equal(t, "Repeating page 1", f.region.Last())
	f.session.Command("stop reading")
	assert.Equal(t, "Stopped reading", f.region.Last())
	f.session.Command("stop reading")
	assert.Equal(t, "Nothing is playing", f.region.Last())
	assert.Equal(t, []string{"one", "one"}, f.spoken())
}

func TestRateCommandsClampAndPersist(t *testing.T) {
	f := newFixture(t, "one")

	f.session.Command("faster reading")
	assert.Equal(t, "Reading speed 1.2", f.region.Last())
	assert.Equal(t, 1.2, f.settings.Float(settings.ReadingSpeed))
	assert.Equal(t, 1.2, f.session.Speech().Params().Rate)

	for i := 0; i < 20; i++ {
		f.session.Command("faster reading")
	}
	assert.Equal(t, 3.0, f.settings.Float(settings.ReadingSpeed))
	assert.Equal(t, "Reading speed is already at maximum", f.region.Last())

	for i := 0; i < 20; i++ {
		f.session.Command("slower reading")
	}
	assert.Equal(t, 0.5, f.settings.Float(settings.ReadingSpeed))
	assert.Equal(t, "Reading speed is already at minimum", f.region.Last())

	reloaded, err := settings.Load(f.store, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, reloaded.Float(settings.ReadingSpeed))
}

func TestSettingCommandsPersistAndApplyImmediately(t *testing.T) {
	f := newFixture(t, "one")
	applied := len(f.shell.visual)

	f.session.Command("high contrast")
	assert.Equal(t, "High contrast on", f.region.Last())
	require.Len(t, f.shell.visual, applied+1)
	assert.True(t, f.shell.visual[applied].HighContrast)

	f.session.Command("offline mode")
	assert.Equal(t, "Offline mode on", f.region.Last())
	// offline mode has no visual effect
	assert.Len(t, f.shell.visual, applied+1)

	reloaded, err := settings.Load(f.store, nil)
	require.NoError(t, err)
	assert.True(t, reloaded.Bool(settings.HighContrast))
	assert.True(t, reloaded.Bool(settings.OfflineMode))
}

func TestShellCommands(t *testing.T) {
	f := newFixture(t, "one")

	f.session.Command("toggle sidebar")
	assert.Equal(t, "Sidebar shown", f.region.Last())
	f.session.Command("toggle theme")
	assert.Equal(t, "Dark theme", f.region.Last())
	f.session.Command("search for")
	assert.Equal(t, "Say search for followed by what to find", f.region.Last())
	assert.Empty(t, f.shell.searches)
}

func TestLoopCommandTogglesSetting(t *testing.T) {
	f := newFixture(t, "one")

	f.session.Command("continuous reading")
	assert.Equal(t, "Loop reading on", f.region.Last())
	assert.True(t, f.session.AutoAdvance().Loop())
	assert.True(t, f.settings.Bool(settings.LoopReading))
}

func TestZoomCommands(t *testing.T) {
	f := newFixture(t, "one")

	f.session.Command("zoom in")
	assert.Equal(t, "Zoom 125%", f.region.Last())
	f.session.Command("zoom out")
	f.session.Command("zoom out")
	assert.Equal(t, "Zoom 75%", f.region.Last())
	f.session.Command("zoom out")
	f.session.Command("zoom out")
	assert.Equal(t, "Already at minimum zoom", f.region.Last())
}
