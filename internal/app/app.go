// Package app wires configuration, persistence and the speech stack into the
// readaloud commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"readaloud/internal/annotation"
	"readaloud/internal/config"
	"readaloud/internal/domain/document"
	"readaloud/internal/kv"
	"readaloud/internal/settings"
	"readaloud/internal/speech/asr"
	"readaloud/internal/speech/tts"
)

// App is the readaloud application shared by every command.
type App struct {
	cfg         config.Config
	store       kv.Store
	settings    *settings.Store
	annotations *annotation.Store
	loader      *document.Loader

	in  io.Reader
	out io.Writer

	newEngine     func(tts.Config) (tts.Engine, error)
	newRecognizer func(asr.Config) (asr.Recognizer, error)
	clock         clock.Clock
	logCloser     io.Closer

	ctx    context.Context
	Cancel context.CancelFunc
}

func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		in:            os.Stdin,
		out:           os.Stdout,
		newEngine:     tts.NewEngine,
		newRecognizer: asr.NewRecognizer,
		clock:         clock.New(),
		ctx:           ctx,
		Cancel:        cancel,
	}
}

// Open opens the settings and annotation stores described by cfg. It is a
// no-op when the app is already open.
func (a *App) Open(cfg config.Config) error {
	if a.store != nil {
		return nil
	}

	store, err := kv.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	keys := settings.ToggleKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	defaults := config.SpeechDefaults()
	maps.Copy(defaults, config.AccessibilityDefaults(names))
	s, err := settings.Load(store, defaults)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	a.cfg = cfg
	a.store = store
	a.settings = s
	a.annotations = annotation.New(store)
	a.loader = document.NewLoader(cfg.Documents.CacheDir, cfg.Documents.MaxAge, cfg.Reader.LinesPerPage,
		func() bool { return s.Bool(settings.OfflineMode) })

	logrus.WithFields(logrus.Fields{
		"backend": cfg.Store.Backend,
		"path":    cfg.Store.Path,
	}).Debug("Opened readaloud store")
	return nil
}

// Close releases the store and any log file opened for the reading view.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
		a.logCloser = nil
	}
	return errors.Join(errs...)
}

// engine builds the configured speech engine, or nil when none can be used.
func (a *App) engine() tts.Engine {
	engine, err := a.newEngine(tts.Config{
		Type:      a.cfg.TTS.Type,
		CachePath: a.cfg.TTS.CachePath,
	})
	if err != nil {
		logrus.WithError(err).Warn("Speech engine unavailable")
		return nil
	}
	return engine
}

// recognizer builds the configured recognizer, or nil when none can be used.
func (a *App) recognizer() asr.Recognizer {
	rec, err := a.newRecognizer(asr.Config{
		Type:    a.cfg.ASR.Type,
		Command: a.cfg.ASR.Command,
		Args:    a.cfg.ASR.Args,
	})
	if err != nil {
		logrus.WithError(err).Warn("Voice recognizer unavailable")
		return nil
	}
	return rec
}

func (a *App) loadDocument(source string) (*document.Document, error) {
	doc, err := a.loader.Load(a.ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source, err)
	}
	return doc, nil
}
