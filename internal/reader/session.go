package reader

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"readaloud/internal/annotation"
	"readaloud/internal/settings"
	"readaloud/internal/speech/asr"
	"readaloud/internal/speech/tts"
)

// voiceCommands is the interpreter's table in evaluation order. "search for"
// comes first so a search term can contain any other phrase.
var voiceCommands = []struct {
	kind    CommandKind
	phrases []string
}{
	{CmdSearch, []string{"search for"}},
	{CmdNextPage, []string{"next page", "next"}},
	{CmdPreviousPage, []string{"previous page", "back"}},
	{CmdZoomIn, []string{"zoom in"}},
	{CmdZoomOut, []string{"zoom out"}},
	{CmdBookmark, []string{"bookmark"}},
	{CmdReadAloud, []string{"read aloud", "start reading"}},
	{CmdStopReading, []string{"stop reading"}},
	{CmdPause, []string{"pause reading", "pause"}},
	{CmdResume, []string{"resume reading", "resume"}},
	{CmdRepeatPage, []string{"repeat page"}},
	{CmdLoopReading, []string{"loop reading", "continuous reading"}},
	{CmdFaster, []string{"faster reading"}},
	{CmdSlower, []string{"slower reading"}},
	{CmdToggleSidebar, []string{"toggle sidebar"}},
	{CmdToggleTheme, []string{"toggle theme"}},
	{CmdHighContrast, []string{"high contrast"}},
	{CmdLargeText, []string{"large text"}},
	{CmdFocusMode, []string{"focus mode"}},
	{CmdOfflineMode, []string{"offline mode"}},
}

// keymap binds keyboard shortcuts to actions.
var keymap = map[string]CommandKind{
	" ":     CmdTogglePlay,
	"space": CmdTogglePlay,
	"s":     CmdStopReading,
	"right": CmdNextPage,
	"n":     CmdNextPage,
	"left":  CmdPreviousPage,
	"p":     CmdPreviousPage,
	"]":     CmdZoomIn,
	"[":     CmdZoomOut,
	"b":     CmdBookmark,
	"r":     CmdRepeatPage,
	"l":     CmdLoopReading,
	"a":     CmdToggleAutoRead,
	"+":     CmdFaster,
	"=":     CmdFaster,
	"-":     CmdSlower,
	"v":     CmdListen,
	"h":     CmdHighContrast,
	"t":     CmdLargeText,
	"f":     CmdFocusMode,
	"o":     CmdOfflineMode,
}

// RateStep is the change applied by the faster and slower commands.
const RateStep = 0.2

// Shell is the part of the surrounding application a session drives.
type Shell interface {
	OpenSearch(term string)
	ToggleSidebar() (visible bool)
	ToggleTheme() (dark bool)
	ApplyVisual(s settings.Settings)
}

// Zoomer is implemented by viewers that can zoom.
type Zoomer interface {
	ZoomIn() bool
	ZoomOut() bool
	Zoom() int
}

type pageNotifier interface {
	OnPageChanged(fn func(page int))
}

type Config struct {
	DocumentID  string
	Viewer      Viewer
	Text        PageText
	Engine      tts.Engine     // nil when speech is unavailable
	Recognizer  asr.Recognizer // nil when recognition is unavailable
	Settings    *settings.Store
	Annotations *annotation.Store
	Shell       Shell
	Region      Region
	Dispatcher  Dispatcher
	Scheduler   Scheduler

	SettleDelay  time.Duration
	AnnounceHold time.Duration
}

// Session is the reading session of one open document.
type Session struct {
	documentID  string
	viewer      Viewer
	text        PageText
	recognizer  asr.Recognizer
	settings    *settings.Store
	annotations *annotation.Store
	shell       Shell
	dispatcher  Dispatcher

	speech    *SpeechController
	pages     *Pagination
	auto      *AutoAdvance
	announcer *Announcer
	interp    *Interpreter
	actions   map[CommandKind]func(rest string) string

	listening   bool
	listenGen   uint64
	unsubscribe func()
}

func NewSession(cfg Config) *Session {
	if cfg.Shell == nil {
		cfg.Shell = nopShell{}
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	s := &Session{
		documentID:  cfg.DocumentID,
		viewer:      cfg.Viewer,
		text:        cfg.Text,
		recognizer:  cfg.Recognizer,
		settings:    cfg.Settings,
		annotations: cfg.Annotations,
		shell:       cfg.Shell,
		dispatcher:  cfg.Dispatcher,
	}

	s.speech = NewSpeechController(cfg.Engine, cfg.Dispatcher, paramsFrom(cfg.Settings.Snapshot()))
	s.pages = NewPagination(cfg.Viewer)
	if n, ok := cfg.Viewer.(pageNotifier); ok {
		n.OnPageChanged(s.pages.PageChanged)
	}
	s.announcer = NewAnnouncer(cfg.Region, cfg.Scheduler, cfg.AnnounceHold)
	s.auto = NewAutoAdvance(s.speech, s.pages, cfg.Scheduler, cfg.DocumentID, cfg.Text, cfg.SettleDelay)
	s.auto.OnError = func(err error) { s.announce(s.errorMessage(err)) }
	s.speech.Subscribe(s.speechEvent)

	s.actions = s.buildActions()
	commands := make([]Command, 0, len(voiceCommands))
	for _, vc := range voiceCommands {
		commands = append(commands, Command{Kind: vc.kind, Phrases: vc.phrases, Run: s.actions[vc.kind]})
	}
	s.interp = NewInterpreter(commands, s.announce)
	return s
}

// Start loads the page count, caches reading settings and announces the
// session. Missing speech or recognition is reported here once.
func (s *Session) Start() {
	s.pages.Loaded(s.viewer.TotalPages())

	snap := s.settings.Snapshot()
	s.auto.SetAutoRead(snap.AutoRead)
	s.auto.SetLoop(snap.LoopReading)
	s.unsubscribe = s.settings.Subscribe(s.settingChanged)
	s.shell.ApplyVisual(snap)

	switch {
	case !s.speech.Available() && s.recognizer == nil:
		s.announce("Speech and voice commands are not available")
	case !s.speech.Available():
		s.announce("Speech is not available")
	case s.recognizer == nil:
		s.announce("Voice commands are not available")
	default:
		s.announce(s.pageAnnouncement(s.pages.Current()))
	}
}

// Close stops speech and listening and detaches from the settings store.
func (s *Session) Close() {
	s.speech.Stop()
	if s.listening {
		s.listening = false
		s.listenGen++
		if err := s.recognizer.Stop(); err != nil {
			logrus.WithError(err).Debug("Failed to stop recognizer")
		}
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) Pages() *Pagination { return s.pages }
func (s *Session) Speech() *SpeechController { return s.speech }
func (s *Session) AutoAdvance() *AutoAdvance { return s.auto }
func (s *Session) Announcer() *Announcer { return s.announcer }
func (s *Session) Listening() bool { return s.listening }
func (s *Session) DocumentID() string { return s.documentID }
func (s *Session) Interpreter() *Interpreter { return s.interp }
func (s *Session) Settings() *settings.Store { return s.settings }

// Command interprets a recognised or typed utterance.
func (s *Session) Command(text string) CommandKind {
	return s.interp.Dispatch(text)
}

// Perform runs one action directly and announces its outcome.
func (s *Session) Perform(kind CommandKind, arg string) {
	fn, ok := s.actions[kind]
	if !ok {
		return
	}
	if msg := fn(arg); msg != "" {
		s.announce(msg)
	}
}

// HandleKey runs the action bound to key and reports whether there was one.
func (s *Session) HandleKey(key string) bool {
	kind, ok := keymap[key]
	if !ok {
		return false
	}
	s.Perform(kind, "")
	return true
}

// Status is a snapshot for status lines.
type Status struct {
	DocumentID   string
	Page         int
	Total        int
	State        State
	Loop         bool
	AutoRead     bool
	Listening    bool
	Rate         float64
	Zoom         int
	Bookmarked   bool
	Announcement string
}

func (s *Session) Status() Status {
	st := Status{
		DocumentID:   s.documentID,
		Page:         s.pages.Current(),
		Total:        s.pages.Total(),
		State:        s.speech.State(),
		Loop:         s.auto.Loop(),
		AutoRead:     s.auto.AutoRead(),
		Listening:    s.listening,
		Rate:         s.speech.Params().Rate,
		Announcement: s.announcer.Current(),
	}
	if z, ok := s.viewer.(Zoomer); ok {
		st.Zoom = z.Zoom()
	}
	if s.annotations != nil && st.Page > 0 {
		st.Bookmarked, _ = s.annotations.HasBookmark(s.documentID, st.Page)
	}
	return st
}

func (s *Session) buildActions() map[CommandKind]func(string) string {
	return map[CommandKind]func(string) string{
		CmdSearch:         s.search,
		CmdNextPage:       func(string) string { return s.next() },
		CmdPreviousPage:   func(string) string { return s.previous() },
		CmdZoomIn:         func(string) string { return s.zoom(true) },
		CmdZoomOut:        func(string) string { return s.zoom(false) },
		CmdBookmark:       func(string) string { return s.toggleBookmark() },
		CmdReadAloud:      func(string) string { return s.readCurrent("Reading page %d") },
		CmdStopReading:    func(string) string { return s.stop() },
		CmdPause:          func(string) string { return s.pause() },
		CmdResume:         func(string) string { return s.resume() },
		CmdRepeatPage:     func(string) string { return s.readCurrent("Repeating page %d") },
		CmdLoopReading:    func(string) string { return s.toggle(settings.LoopReading, "Loop reading") },
		CmdFaster:         func(string) string { return s.adjustRate(RateStep) },
		CmdSlower:         func(string) string { return s.adjustRate(-RateStep) },
		CmdToggleSidebar:  func(string) string { return s.toggleSidebar() },
		CmdToggleTheme:    func(string) string { return s.toggleTheme() },
		CmdHighContrast:   func(string) string { return s.toggle(settings.HighContrast, "High contrast") },
		CmdLargeText:      func(string) string { return s.toggle(settings.LargeText, "Large text") },
		CmdFocusMode:      func(string) string { return s.toggle(settings.FocusMode, "Focus mode") },
		CmdOfflineMode:    func(string) string { return s.toggle(settings.OfflineMode, "Offline mode") },
		CmdTogglePlay:     func(string) string { return s.togglePlay() },
		CmdToggleAutoRead: func(string) string { return s.toggle(settings.AutoRead, "Auto read") },
		CmdListen:         func(string) string { return s.listen() },
		CmdStopListening:  func(string) string { return s.stopListening() },
	}
}

func (s *Session) announce(msg string) {
	logrus.WithField("message", msg).Debug("Announcement")
	s.announcer.Announce(msg)
}

func (s *Session) search(term string) string {
	if term == "" {
		return "Say search for followed by what to find"
	}
	s.shell.OpenSearch(term)
	return fmt.Sprintf("Searching for %s", term)
}

func (s *Session) next() string {
	if s.pages.Total() < 1 {
		return s.errorMessage(ErrNoDocument)
	}
	page, ok := s.pages.Next()
	if !ok {
		return "Already on the last page"
	}
	return s.pageAnnouncement(page)
}

func (s *Session) previous() string {
	if s.pages.Total() < 1 {
		return s.errorMessage(ErrNoDocument)
	}
	page, ok := s.pages.Previous()
	if !ok {
		return "Already on the first page"
	}
	return s.pageAnnouncement(page)
}

// pageAnnouncement names page. With screenReaderEnabled it also carries the
// page's opening line.
func (s *Session) pageAnnouncement(page int) string {
	msg := fmt.Sprintf("Page %d of %d", page, s.pages.Total())
	if !s.settings.Bool(settings.ScreenReaderEnabled) {
		return msg
	}
	text, err := s.text(page)
	if err != nil {
		return msg
	}
	if line := openingLine(text); line != "" {
		msg += ": " + line
	}
	return msg
}

const maxOpeningRunes = 60

func openingLine(text string) string {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxOpeningRunes {
			line = strings.TrimSpace(string(r[:maxOpeningRunes])) + "…"
		}
		return line
	}
	return ""
}

func (s *Session) zoom(in bool) string {
	z, ok := s.viewer.(Zoomer)
	if !ok {
		return "Zoom is not supported"
	}
	change, limit := z.ZoomOut, "Already at minimum zoom"
	if in {
		change, limit = z.ZoomIn, "Already at maximum zoom"
	}
	if !change() {
		return limit
	}
	return fmt.Sprintf("Zoom %d%%", z.Zoom())
}

func (s *Session) toggleBookmark() string {
	if s.annotations == nil {
		return "Bookmarks are not available"
	}
	page := s.pages.Current()
	if page < 1 {
		return s.errorMessage(ErrNoDocument)
	}
	present, err := s.annotations.ToggleBookmark(s.documentID, page)
	if err != nil {
		logrus.WithError(err).Warn("Failed to toggle bookmark")
		return "Could not save bookmark"
	}
	if present {
		return fmt.Sprintf("Bookmark added on page %d", page)
	}
	return fmt.Sprintf("Bookmark removed from page %d", page)
}

// readCurrent speaks the current page. format receives the page number.
func (s *Session) readCurrent(format string) string {
	page := s.pages.Current()
	if page < 1 {
		return s.errorMessage(ErrNoDocument)
	}
	if !s.speech.Available() {
		return s.errorMessage(&Error{Kind: FeatureUnavailable, Op: "speak", Err: ErrSpeechUnavailable})
	}
	text, err := s.text(page)
	if err != nil {
		logrus.WithError(err).WithField("page", page).Warn("Failed to fetch page text")
		return fmt.Sprintf("Could not load page %d", page)
	}
	if err := s.speech.Speak(text, Origin{DocumentID: s.documentID, Page: page}); err != nil {
		return s.errorMessage(err)
	}
	return fmt.Sprintf(format, page)
}

func (s *Session) stop() string {
	pending := s.auto.Pending()
	if active := s.speech.Stop(); active || pending {
		return "Stopped reading"
	}
	return "Nothing is playing"
}

// pause also drops a continuation waiting out the settle delay.
func (s *Session) pause() string {
	if s.speech.Pause() {
		return "Paused"
	}
	if s.auto.Pending() {
		s.auto.Cancel()
		return "Paused before the next page"
	}
	return "Nothing is playing"
}

func (s *Session) resume() string {
	if s.speech.Resume() {
		return "Resumed"
	}
	return "Nothing to resume"
}

func (s *Session) togglePlay() string {
	switch s.speech.State() {
	case Speaking:
		return s.pause()
	case Paused:
		return s.resume()
	default:
		if s.auto.Pending() {
			return s.pause()
		}
		return s.readCurrent("Reading page %d")
	}
}

func (s *Session) toggle(key settings.Key, label string) string {
	on, err := s.settings.Toggle(key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to toggle setting")
		return fmt.Sprintf("Could not change %s", label)
	}
	if on {
		return label + " on"
	}
	return label + " off"
}

func (s *Session) adjustRate(delta float64) string {
	current := s.settings.Float(settings.ReadingSpeed)
	next := math.Round(clamp(current+delta, MinRate, MaxRate)*10) / 10
	if next == current {
		if delta > 0 {
			return "Reading speed is already at maximum"
		}
		return "Reading speed is already at minimum"
	}
	if err := s.settings.Set(settings.ReadingSpeed, next); err != nil {
		logrus.WithError(err).Warn("Failed to change reading speed")
		return "Could not change reading speed"
	}
	return fmt.Sprintf("Reading speed %.1f", next)
}

func (s *Session) toggleSidebar() string {
	if s.shell.ToggleSidebar() {
		return "Sidebar shown"
	}
	return "Sidebar hidden"
}

func (s *Session) toggleTheme() string {
	if s.shell.ToggleTheme() {
		return "Dark theme"
	}
	return "Light theme"
}

func (s *Session) listen() string {
	if s.recognizer == nil {
		return s.errorMessage(&Error{Kind: FeatureUnavailable, Op: "listen", Err: ErrRecognitionUnavailable})
	}
	if !s.settings.Bool(settings.VoiceCommandsEnabled) {
		return "Voice commands are turned off"
	}
	if s.listening {
		return ""
	}

	s.listenGen++
	gen := s.listenGen
	s.listening = true

	err := s.recognizer.Start(asr.Handler{
		OnResult: func(text string) {
			s.dispatcher.Post(func() { s.heard(gen, text) })
		},
		OnEnd: func() {
			s.dispatcher.Post(func() { s.listenEnded(gen) })
		},
		OnError: func(err error) {
			s.dispatcher.Post(func() { s.listenFailed(gen, err) })
		},
	})
	if err != nil {
		s.listening = false
		s.listenGen++
		if errors.Is(err, asr.ErrBusy) {
			return ""
		}
		return s.errorMessage(recognitionError(err))
	}
	return "Listening"
}

func (s *Session) stopListening() string {
	if !s.listening {
		return ""
	}
	s.listening = false
	s.listenGen++
	if err := s.recognizer.Stop(); err != nil {
		logrus.WithError(err).Debug("Failed to stop recognizer")
	}
	return "Stopped listening"
}

func (s *Session) heard(gen uint64, text string) {
	if gen != s.listenGen {
		return
	}
	s.listening = false
	s.listenGen++
	s.interp.Dispatch(text)
}

func (s *Session) listenEnded(gen uint64) {
	if gen != s.listenGen {
		return
	}
	s.listening = false
	s.listenGen++
	s.announce("No command heard")
}

func (s *Session) listenFailed(gen uint64, err error) {
	if gen != s.listenGen {
		return
	}
	s.listening = false
	s.listenGen++
	logrus.WithError(err).Warn("Voice recognition failed")
	s.announce(s.errorMessage(recognitionError(err)))
}

func recognitionError(err error) error {
	if errors.Is(err, asr.ErrPermissionDenied) {
		return &Error{Kind: PermissionDenied, Op: "listen", Err: err}
	}
	return &Error{Kind: EngineError, Op: "listen", Err: err}
}

func (s *Session) speechEvent(ev Event) {
	switch ev.Kind {
	case EventFailed:
		s.announce(s.errorMessage(ev.Err))
	case EventFinished:
		if s.auto.AutoRead() && !s.auto.Pending() {
			s.announce("Finished reading")
		}
	}
}

func (s *Session) settingChanged(c settings.Change) {
	switch c.Key {
	case settings.ReadingSpeed, settings.VoicePitch, settings.VoiceVolume, settings.VoiceID, settings.Language:
		s.speech.SetParameters(paramsFrom(s.settings.Snapshot()))
	case settings.AutoRead:
		on, _ := c.Value.(bool)
		s.auto.SetAutoRead(on)
	case settings.LoopReading:
		on, _ := c.Value.(bool)
		s.auto.SetLoop(on)
	case settings.VoiceCommandsEnabled:
		if on, _ := c.Value.(bool); !on && s.listening {
			s.stopListening()
		}
	}
	if settings.IsVisual(c.Key) {
		s.shell.ApplyVisual(s.settings.Snapshot())
	}
}

func (s *Session) errorMessage(err error) string {
	switch KindOf(err) {
	case FeatureUnavailable:
		if errors.Is(err, ErrRecognitionUnavailable) {
			return "Voice commands are not available"
		}
		return "Speech is not available"
	case PermissionDenied:
		return "Microphone access denied"
	case EngineError:
		if errors.Is(err, asr.ErrPermissionDenied) {
			return "Microphone access denied"
		}
		var re *Error
		if errors.As(err, &re) && re.Op == "listen" {
			return "Voice recognition failed"
		}
		return "Speech failed"
	}
	switch {
	case errors.Is(err, ErrEmptyText):
		return "This page has no text"
	case errors.Is(err, ErrNoDocument):
		return "No document is open"
	default:
		return "Something went wrong"
	}
}

func paramsFrom(snap settings.Settings) Params {
	return Params{
		Rate:     snap.ReadingSpeed,
		Pitch:    snap.VoicePitch,
		Volume:   snap.VoiceVolume,
		VoiceID:  snap.VoiceID,
		Language: snap.Language,
	}
}

type nopShell struct{}

func (nopShell) OpenSearch(string) {}
func (nopShell) ToggleSidebar() bool { return false }
func (nopShell) ToggleTheme() bool { return false }
func (nopShell) ApplyVisual(settings.Settings) {}
