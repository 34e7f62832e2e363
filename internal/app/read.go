package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"readaloud/internal/config"
	"readaloud/internal/domain/document"
	"readaloud/internal/logging"
	"readaloud/internal/reader"
	"readaloud/internal/settings"
	"readaloud/internal/speech/asr"
	"readaloud/internal/speech/tts"
	"readaloud/internal/ui"
)

// Read opens a document and reads it aloud, in the terminal view or with
// --plain on a line based console.
func (a *App) Read(cmd *cobra.Command, args []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	page, _ := cmd.Flags().GetInt("page")
	voice, _ := cmd.Flags().GetString("voice")

	doc, err := a.loadDocument(args[0])
	if err != nil {
		return err
	}
	if voice != "" {
		if err := a.settings.Set(settings.VoiceID, voice); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"document": doc.ID,
		"title":    doc.Title,
		"pages":    doc.TotalPages(),
	}).Info("Opening document")

	if plain {
		return a.readPlain(doc, a.engine(), a.recognizer(), page)
	}

	// The terminal view owns the screen, so logs go to a file.
	if a.cfg.Log.File == "" {
		closer, err := logging.Setup(a.cfg.Log.Level, a.cfg.Log.Format, filepath.Join(config.DataDir(), "readaloud.log"))
		if err != nil {
			return err
		}
		a.logCloser = closer
	}
	return a.readTUI(doc, a.engine(), a.recognizer(), page)
}

func (a *App) readTUI(doc *document.Document, engine tts.Engine, rec asr.Recognizer, page int) error {
	if m, ok := engine.(*tts.MockTTSEngine); ok {
		m.SetOutput(io.Discard)
	}

	bridge := ui.NewBridge()
	model := ui.New(ui.Options{
		Document:     doc,
		Engine:       engine,
		Recognizer:   rec,
		Settings:     a.settings,
		Annotations:  a.annotations,
		Bridge:       bridge,
		Scheduler:    reader.NewClockScheduler(a.clock, bridge),
		SettleDelay:  a.cfg.Reader.SettleDelay,
		AnnounceHold: a.cfg.Reader.AnnounceHold,
	})
	if page > 1 {
		bridge.Post(func() { model.Session().Pages().GoTo(page) })
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(a.ctx))
	bridge.Attach(p)

	_, err := p.Run()
	model.Session().Close()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("reading view failed: %w", err)
	}
	return nil
}

func (a *App) readPlain(doc *document.Document, engine tts.Engine, rec asr.Recognizer, page int) error {
	if m, ok := engine.(*tts.MockTTSEngine); ok {
		m.SetOutput(a.out)
	}

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	loop := reader.NewLoop()
	viewer := document.NewViewer(doc)
	con := newConsole(a.out, doc, a.annotations)
	con.typed, _ = rec.(*asr.TypedRecognizer)
	con.session = reader.NewSession(reader.Config{
		DocumentID:   doc.ID,
		Viewer:       viewer,
		Text:         viewer.PageText,
		Engine:       engine,
		Recognizer:   rec,
		Settings:     a.settings,
		Annotations:  a.annotations,
		Shell:        con,
		Region:       con,
		Dispatcher:   loop,
		Scheduler:    reader.NewClockScheduler(a.clock, loop),
		SettleDelay:  a.cfg.Reader.SettleDelay,
		AnnounceHold: a.cfg.Reader.AnnounceHold,
	})

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	loop.Post(func() { con.open(page) })

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

read:
	for {
		select {
		case <-ctx.Done():
			break read
		case line, ok := <-lines:
			if !ok || isQuit(line) {
				break read
			}
			loop.Post(func() { con.handle(line) })
		}
	}

	if ctx.Err() == nil {
		closed := make(chan struct{})
		// Let work posted by the last handled line run before closing.
		loop.Post(func() {
			loop.Post(func() {
				con.session.Close()
				close(closed)
			})
		})
		select {
		case <-closed:
		case <-ctx.Done():
		}
	}
	loop.Close()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
