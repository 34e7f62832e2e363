package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readaloud/internal/annotation"
	"readaloud/internal/domain/document"
	"readaloud/internal/kv"
	"readaloud/internal/reader"
	"readaloud/internal/settings"
	"readaloud/internal/speech/asr"
	"readaloud/internal/speech/tts"
)

// idleScheduler never fires; announcement clears are irrelevant here.
type idleScheduler struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (idleScheduler) After(time.Duration, func()) reader.Timer { return idleTimer{} }

type testView struct {
	model  *Model
	engine *tts.MockTTSEngine
	rec    *asr.TypedRecognizer
	st     *settings.Store
}

func newTestView(t *testing.T) *testView {
	t.Helper()
	store := kv.NewMemory()
	st, err := settings.Load(store, nil)
	require.NoError(t, err)

	engine := tts.NewManualMockEngine()
	rec := asr.NewTypedRecognizer()
	doc := document.New("doc", "A Tale", "", "It was the best of times\fIt was the worst of times\fThe end", 40)

	m := New(Options{
		Document:    doc,
		Engine:      engine,
		Recognizer:  rec,
		Settings:    st,
		Annotations: annotation.New(store),
		Bridge:      NewBridge(),
		Scheduler:   idleScheduler{},
	})
	return &testView{model: m, engine: engine, rec: rec, st: st}
}

func (v *testView) send(msg tea.Msg) tea.Cmd {
	_, cmd := v.model.Update(msg)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (v *testView) typeText(s string) {
	for _, r := range s {
		v.send(runes(string(r)))
	}
}

func TestNewModelAnnouncesFirstPage(t *testing.T) {
	v := newTestView(t)
	assert.Equal(t, "Page 1 of 3", v.model.announcement)

	out := v.model.View()
	assert.Contains(t, out, "A Tale")
	assert.Contains(t, out, "best of times")
	assert.Contains(t, out, "Page 1/3")
}

func TestKeysDriveSession(t *testing.T) {
	v := newTestView(t)

	v.send(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, v.model.Session().Pages().Current())
	assert.Contains(t, v.model.View(), "worst of times")

	v.send(tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, reader.Speaking, v.model.Session().Speech().State())
	require.Len(t, v.engine.Utterances(), 1)
	assert.Equal(t, "It was the worst of times", v.engine.Utterances()[0].Text)
	assert.Equal(t, "Reading page 2", v.model.announcement)
}

func TestEngineCallbacksRunThroughBridge(t *testing.T) {
	v := newTestView(t)

	v.send(tea.KeyMsg{Type: tea.KeySpace})
	v.engine.Finish(v.engine.Last())
	// nothing changes until the bridge is drained on the loop
	assert.Equal(t, reader.Speaking, v.model.Session().Speech().State())

	v.send(drainMsg{})
	assert.Equal(t, reader.Idle, v.model.Session().Speech().State())
}

func TestTypedVoiceCommand(t *testing.T) {
	v := newTestView(t)

	v.send(runes("v"))
	assert.Equal(t, inputListen, v.model.mode)
	assert.True(t, v.rec.Listening())

	v.typeText("next page")
	v.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, inputNone, v.model.mode)

	v.send(drainMsg{})
	assert.Equal(t, 2, v.model.Session().Pages().Current())
	assert.Equal(t, "Page 2 of 3", v.model.announcement)
}

func TestEscapeStopsListening(t *testing.T) {
	v := newTestView(t)

	v.send(runes("v"))
	v.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, v.model.mode)
	assert.False(t, v.rec.Listening())
	assert.Equal(t, "Stopped listening", v.model.announcement)
}

func TestSearchHighlightsPages(t *testing.T) {
	v := newTestView(t)

	v.send(runes("/"))
	assert.Equal(t, inputSearch, v.model.mode)
	v.typeText("TIMES")
	v.send(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []int{1, 2}, v.model.searchHits)
	assert.Equal(t, "Searching for TIMES", v.model.announcement)
	assert.Contains(t, v.model.statusLine(), "p. 1, 2")
}

func TestCommandPrompt(t *testing.T) {
	v := newTestView(t)

	v.send(runes(":"))
	v.typeText("high contrast")
	v.send(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, v.st.Bool(settings.HighContrast))
	assert.True(t, v.model.visual.HighContrast)
	assert.Equal(t, "High contrast on", v.model.announcement)
}

func TestSidebarAndFocusMode(t *testing.T) {
	v := newTestView(t)

	v.send(runes("b"))
	v.send(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, v.model.sidebarVisible())
	assert.Contains(t, v.model.View(), "page 1")
	assert.Contains(t, v.model.View(), "Bookmarks")

	v.send(runes("f"))
	assert.False(t, v.model.sidebarVisible())
	assert.False(t, strings.Contains(v.model.View(), helpText))
}

func TestQuitClosesSession(t *testing.T) {
	v := newTestView(t)
	v.send(tea.KeyMsg{Type: tea.KeySpace})

	cmd := v.send(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, reader.Idle, v.model.Session().Speech().State())
}

func TestBridgeRunsInOrder(t *testing.T) {
	b := NewBridge()
	var got []int
	b.Post(func() { got = append(got, 1) })
	b.Post(func() { got = append(got, 2) })
	b.drain()
	b.drain()
	assert.Equal(t, []int{1, 2}, got)
}

func TestHighlight(t *testing.T) {
	out := highlight("Times and times", "times", newStyles(true, false).Match)
	assert.Equal(t, 2, strings.Count(out, "imes"))
	assert.Equal(t, "p. 1, 2, 3, 4, 5, …", joinPages([]int{1, 2, 3, 4, 5, 6}))
}
