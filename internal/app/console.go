package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"readaloud/internal/annotation"
	"readaloud/internal/cli/scheme/colours"
	"readaloud/internal/domain/document"
	"readaloud/internal/reader"
	"readaloud/internal/settings"
	"readaloud/internal/speech/asr"
)

const consoleHelp = `Keys (then Enter):
  Enter play/pause    s stop           n next page      p previous page
  b bookmark          r repeat page    l loop reading   a auto-read
  + faster            - slower         ] zoom in        [ zoom out
  v voice command     h high contrast  t large text     f focus mode
  o offline mode      :<command> run a voice command    ? help   q quit`

// console is the plain reading frontend. It is the session's live region and
// shell, and every method runs on the reader loop.
type console struct {
	out         io.Writer
	doc         *document.Document
	annotations *annotation.Store
	session     *reader.Session
	typed       *asr.TypedRecognizer

	visual  settings.Settings
	sidebar bool
	dark    bool
}

func newConsole(out io.Writer, doc *document.Document, annotations *annotation.Store) *console {
	return &console{out: out, doc: doc, annotations: annotations, dark: true}
}

func (c *console) open(page int) {
	colours.Title.Fprintf(c.out, "%s\n", c.doc.Title)
	c.session.Start()
	if !c.visual.FocusMode {
		colours.Info.Fprintln(c.out, "Type ? for help, q to quit.")
	}

	c.session.Pages().Subscribe(c.showPage)
	if _, moved := c.session.Pages().GoTo(page); !moved {
		c.showPage(c.session.Pages().Current())
	}
}

// handle interprets one line of input.
func (c *console) handle(line string) {
	line = strings.TrimSpace(line)

	switch {
	case c.typed != nil && c.typed.Listening():
		c.typed.Feed(line)
	case strings.HasPrefix(line, ":"):
		c.session.Command(strings.TrimPrefix(line, ":"))
	case line == "?" || line == "help":
		fmt.Fprintln(c.out, consoleHelp)
	case line == "":
		c.session.HandleKey(" ")
	default:
		if !c.session.HandleKey(line) {
			colours.Warning.Fprintf(c.out, "Unknown key %q, type ? for help\n", line)
		}
	}
}

func (c *console) showPage(page int) {
	text, err := c.doc.PageText(page)
	if err != nil {
		logrus.WithError(err).Warn("Failed to show page")
		return
	}
	if c.visual.LargeText {
		text = strings.ReplaceAll(text, "\n", "\n\n")
	}

	fmt.Fprintln(c.out)
	if !c.visual.FocusMode {
		colours.Title.Fprintf(c.out, "Page %d/%d\n", page, c.doc.TotalPages())
	}
	colours.Page.Fprintln(c.out, text)
}

// SetText implements reader.Region. Clearing is silent on a console.
func (c *console) SetText(text string) {
	if text == "" {
		return
	}
	colours.Announce.Fprintf(c.out, "» %s\n", text)
}

// OpenSearch implements reader.Shell by listing the pages containing term.
func (c *console) OpenSearch(term string) {
	needle := strings.ToLower(term)
	var hits []string
	for i, page := range c.doc.Pages {
		if strings.Contains(strings.ToLower(page), needle) {
			hits = append(hits, fmt.Sprint(i+1))
		}
	}
	if len(hits) == 0 {
		colours.Warning.Fprintf(c.out, "No pages contain %q\n", term)
		return
	}
	colours.Info.Fprintf(c.out, "%q found on pages %s\n", term, strings.Join(hits, ", "))
}

// ToggleSidebar prints the document's bookmarks and notes when shown.
func (c *console) ToggleSidebar() bool {
	c.sidebar = !c.sidebar
	if !c.sidebar {
		return false
	}

	bookmarks, err := c.annotations.BookmarksFor(c.doc.ID)
	if err != nil {
		logrus.WithError(err).Warn("Failed to list bookmarks")
	}
	notes, err := c.annotations.NotesFor(c.doc.ID)
	if err != nil {
		logrus.WithError(err).Warn("Failed to list notes")
	}

	colours.Title.Fprintln(c.out, "Bookmarks")
	if len(bookmarks) == 0 {
		fmt.Fprintln(c.out, "  none")
	}
	for _, b := range bookmarks {
		fmt.Fprintf(c.out, "  page %d\n", b.Page)
	}
	colours.Title.Fprintln(c.out, "Audio notes")
	if len(notes) == 0 {
		fmt.Fprintln(c.out, "  none")
	}
	for _, n := range notes {
		fmt.Fprintf(c.out, "  #%d page %d (%.1fs)\n", n.ID, n.Page, float64(n.DurationMs)/1000)
	}
	return true
}

func (c *console) ToggleTheme() bool {
	c.dark = !c.dark
	return c.dark
}

// ApplyVisual implements reader.Shell.
func (c *console) ApplyVisual(s settings.Settings) {
	c.visual = s
	colours.UseHighContrast(s.HighContrast)
}

func isQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}
