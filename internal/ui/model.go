package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"readaloud/internal/annotation"
	"readaloud/internal/domain/document"
	"readaloud/internal/reader"
	"readaloud/internal/settings"
	"readaloud/internal/speech/asr"
	"readaloud/internal/speech/tts"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputListen
	inputSearch
	inputCommand
)

// Options wires a reading view.
type Options struct {
	Document    *document.Document
	Engine      tts.Engine
	Recognizer  asr.Recognizer
	Settings    *settings.Store
	Annotations *annotation.Store
	Bridge      *Bridge
	Scheduler   reader.Scheduler

	SettleDelay  time.Duration
	AnnounceHold time.Duration
}

// Model is the root bubbletea model of the reading view. It is also the
// session's live region and shell.
type Model struct {
	session     *reader.Session
	doc         *document.Document
	viewer      *document.Viewer
	bridge      *Bridge
	annotations *annotation.Store
	typed       *asr.TypedRecognizer

	viewport viewport.Model
	input    textinput.Model
	mode     inputMode

	announcement string
	visual       settings.Settings
	styles       styles
	sidebar      bool
	dark         bool

	searchTerm string
	searchHits []int

	width  int
	height int
}

func New(opts Options) *Model {
	ti := textinput.New()
	ti.CharLimit = 200

	m := &Model{
		doc:         opts.Document,
		viewer:      document.NewViewer(opts.Document),
		bridge:      opts.Bridge,
		annotations: opts.Annotations,
		viewport:    viewport.New(80, 20),
		input:       ti,
		dark:        true,
		width:       80,
		height:      24,
	}
	m.typed, _ = opts.Recognizer.(*asr.TypedRecognizer)
	m.styles = newStyles(m.dark, false)

	m.session = reader.NewSession(reader.Config{
		DocumentID:   opts.Document.ID,
		Viewer:       m.viewer,
		Text:         m.viewer.PageText,
		Engine:       opts.Engine,
		Recognizer:   opts.Recognizer,
		Settings:     opts.Settings,
		Annotations:  opts.Annotations,
		Shell:        m,
		Region:       m,
		Dispatcher:   opts.Bridge,
		Scheduler:    opts.Scheduler,
		SettleDelay:  opts.SettleDelay,
		AnnounceHold: opts.AnnounceHold,
	})
	m.session.Start()
	m.refresh()
	return m
}

// Session exposes the reading session, mainly for shutdown.
func (m *Model) Session() *reader.Session {
	return m.session
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case drainMsg:
		m.bridge.drain()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if m.mode != inputNone {
			cmd = m.updateInput(msg)
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.session.Close()
			return m, tea.Quit
		case "/":
			m.openInput(inputSearch, "Search: ")
		case ":":
			m.openInput(inputCommand, "Command: ")
		case "tab":
			m.session.Perform(reader.CmdToggleSidebar, "")
		case "up", "down", "pgup", "pgdown", "k", "j":
			m.viewport, cmd = m.viewport.Update(msg)
		default:
			m.session.HandleKey(msg.String())
			if m.session.Listening() && m.typed != nil {
				m.openInput(inputListen, "Say a command: ")
			}
		}
	}

	m.refresh()
	return m, cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		value := m.input.Value()
		mode := m.mode
		m.closeInput()
		switch mode {
		case inputListen:
			m.typed.Feed(value)
		case inputSearch:
			m.session.Perform(reader.CmdSearch, strings.TrimSpace(value))
		case inputCommand:
			m.session.Command(value)
		}
		return nil
	case "esc":
		if m.mode == inputListen {
			m.session.Perform(reader.CmdStopListening, "")
		}
		m.closeInput()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) openInput(mode inputMode, prompt string) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.PromptStyle = m.styles.Prompt
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

// refresh re-renders the page into the viewport after any change.
func (m *Model) refresh() {
	if m.mode == inputListen && !m.session.Listening() {
		m.closeInput()
	}

	sidebarWidth := 0
	if m.sidebarVisible() {
		sidebarWidth = 32
	}
	width := m.width - sidebarWidth - 2
	if zoom := m.viewer.Zoom(); zoom > 0 {
		width = width * 100 / zoom
	}
	if width < 20 {
		width = 20
	}

	m.viewport.Width = width + 4
	m.viewport.Height = max(m.height-6, 3)

	text, err := m.viewer.PageText(m.viewer.CurrentPage())
	if err != nil {
		logrus.WithError(err).Debug("No page to render")
		text = ""
	}
	if m.searchTerm != "" {
		text = highlight(text, m.searchTerm, m.styles.Match)
	}
	if m.visual.LargeText {
		text = strings.ReplaceAll(text, "\n", "\n\n")
	}
	m.viewport.SetContent(m.styles.Page.Width(width).Render(text))
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.doc.Title))
	b.WriteString("\n")

	body := m.viewport.View()
	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.sidebarView())
	}
	b.WriteString(body)
	b.WriteString("\n")

	// Live region
	b.WriteString(m.styles.Announcement.Render(m.announcement))
	b.WriteString("\n")

	if m.mode != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	if !m.visual.FocusMode {
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render(helpText))
	}
	return b.String()
}

func (m *Model) statusLine() string {
	st := m.session.Status()
	parts := []string{
		fmt.Sprintf("Page %d/%d", st.Page, st.Total),
		st.State.String(),
		fmt.Sprintf("%.1fx", st.Rate),
		fmt.Sprintf("zoom %d%%", st.Zoom),
	}
	flag := func(on bool, label string) {
		if on {
			parts = append(parts, m.styles.On.Render(label))
		}
	}
	flag(st.AutoRead, "auto")
	flag(st.Loop, "loop")
	flag(st.Bookmarked, "bookmarked")
	flag(st.Listening, "listening")
	if len(m.searchHits) > 0 {
		parts = append(parts, fmt.Sprintf("%q on %s", m.searchTerm, joinPages(m.searchHits)))
	}
	return m.styles.StatusBar.Render(strings.Join(parts, " · "))
}

func (m *Model) sidebarView() string {
	var b strings.Builder
	b.WriteString(m.styles.SidebarTitle.Render("Bookmarks"))
	b.WriteString("\n")

	if m.annotations != nil {
		marks, err := m.annotations.BookmarksFor(m.doc.ID)
		if err != nil {
			logrus.WithError(err).Warn("Failed to list bookmarks")
		}
		for _, bm := range marks {
			fmt.Fprintf(&b, "  page %d\n", bm.Page)
		}
		if len(marks) == 0 {
			b.WriteString(m.styles.StatusBarText.Render("  none"))
			b.WriteString("\n")
		}

		b.WriteString(m.styles.SidebarTitle.Render("Audio notes"))
		b.WriteString("\n")
		notes, err := m.annotations.NotesFor(m.doc.ID)
		if err != nil {
			logrus.WithError(err).Warn("Failed to list audio notes")
		}
		for _, n := range notes {
			fmt.Fprintf(&b, "  #%d page %d (%ds)\n", n.ID, n.Page, n.DurationMs/1000)
		}
		if len(notes) == 0 {
			b.WriteString(m.styles.StatusBarText.Render("  none"))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.styles.SidebarTitle.Render("Settings"))
	b.WriteString("\n")
	for _, s := range []struct {
		label string
		on    bool
	}{
		{"high contrast", m.visual.HighContrast},
		{"large text", m.visual.LargeText},
		{"focus mode", m.visual.FocusMode},
		{"reduced motion", m.visual.ReducedMotion},
		{"offline", m.visual.OfflineMode},
	} {
		mark := "○"
		if s.on {
			mark = m.styles.On.Render("●")
		}
		fmt.Fprintf(&b, "  %s %s\n", mark, s.label)
	}

	return m.styles.Sidebar.Width(28).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) sidebarVisible() bool {
	return m.sidebar && !m.visual.FocusMode
}

// SetText implements reader.Region.
func (m *Model) SetText(text string) {
	m.announcement = text
}

// OpenSearch implements reader.Shell. It records the pages containing term.
func (m *Model) OpenSearch(term string) {
	m.searchTerm = term
	m.searchHits = m.searchHits[:0]
	re := termPattern(term)
	for i, page := range m.doc.Pages {
		if re.MatchString(page) {
			m.searchHits = append(m.searchHits, i+1)
		}
	}
}

func (m *Model) ToggleSidebar() bool {
	m.sidebar = !m.sidebar
	return m.sidebar
}

func (m *Model) ToggleTheme() bool {
	m.dark = !m.dark
	m.styles = newStyles(m.dark, m.visual.HighContrast)
	return m.dark
}

// ApplyVisual implements reader.Shell.
func (m *Model) ApplyVisual(s settings.Settings) {
	m.visual = s
	m.styles = newStyles(m.dark, s.HighContrast)

	mode := cursor.CursorBlink
	if s.ReducedMotion {
		mode = cursor.CursorStatic
	}
	m.input.Cursor.SetMode(mode)
}

func termPattern(term string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}

func highlight(text, term string, style lipgloss.Style) string {
	return termPattern(term).ReplaceAllStringFunc(text, func(s string) string {
		return style.Render(s)
	})
}

func joinPages(pages []int) string {
	const shown = 5
	parts := make([]string, 0, shown)
	for i, p := range pages {
		if i == shown {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, fmt.Sprint(p))
	}
	return "p. " + strings.Join(parts, ", ")
}

const helpText = "space play/pause · s stop · ←/→ page · b bookmark · r repeat · a auto · l loop · +/- speed · v listen · : command · / search · tab sidebar · q quit"
