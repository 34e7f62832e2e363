package reader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"readaloud/internal/annotation"
	"readaloud/internal/domain/document"
	"readaloud/internal/kv"
	"readaloud/internal/settings"
	"readaloud/internal/speech/asr"
	"readaloud/internal/speech/tts"
)

// inline runs posted work immediately on the caller's goroutine, which plays
// the part of the event loop in tests.
type inline struct{}

func (inline) Post(fn func()) { fn() }

type manualTimer struct {
	at   time.Duration
	fn   func()
	done bool
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}

// manualScheduler only fires timers when Advance is called.
type manualScheduler struct {
	now    time.Duration
	timers []*manualTimer
}

func (s *manualScheduler) After(d time.Duration, fn func()) Timer {
	t := &manualTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *manualTimer
		for _, t := range s.timers {
			if !t.done && t.at <= target && (next == nil || t.at < next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		s.now = next.at
		next.done = true
		next.fn()
	}
	s.now = target
}

func (s *manualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// recordingRegion keeps every write to the live region.
type recordingRegion struct {
	writes []string
}

func (r *recordingRegion) SetText(text string) {
	r.writes = append(r.writes, text)
}

func (r *recordingRegion) Announcements() []string {
	var out []string
	for _, w := range r.writes {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (r *recordingRegion) Last() string {
	a := r.Announcements()
	if len(a) == 0 {
		return ""
	}
	return a[len(a)-1]
}

type fakeShell struct {
	searches []string
	sidebar  bool
	dark     bool
	visual   []settings.Settings
}

func (s *fakeShell) OpenSearch(term string) { s.searches = append(s.searches, term) }

func (s *fakeShell) ToggleSidebar() bool {
	s.sidebar = !s.sidebar
	return s.sidebar
}

func (s *fakeShell) ToggleTheme() bool {
	s.dark = !s.dark
	return s.dark
}

func (s *fakeShell) ApplyVisual(v settings.Settings) { s.visual = append(s.visual, v) }

type fixture struct {
	session  *Session
	engine   *tts.MockTTSEngine
	rec      *asr.TypedRecognizer
	sched    *manualScheduler
	region   *recordingRegion
	viewer   *document.Viewer
	settings *settings.Store
	notes    *annotation.Store
	shell    *fakeShell
	store    *kv.Memory
}

type fixtureOption func(*Config)

func withoutEngine() fixtureOption {
	return func(c *Config) { c.Engine = nil }
}

func withoutRecognizer() fixtureOption {
	return func(c *Config) { c.Recognizer = nil }
}

const settle = 800 * time.Millisecond

// newFixture opens a session over pages separated by form feeds.
func newFixture(t *testing.T, pages string, opts ...fixtureOption) *fixture {
	t.Helper()

	store := kv.NewMemory()
	st, err := settings.Load(store, nil)
	require.NoError(t, err)

	f := &fixture{
		engine:   tts.NewManualMockEngine(),
		rec:      asr.NewTypedRecognizer(),
		sched:    &manualScheduler{},
		region:   &recordingRegion{},
		viewer:   document.NewViewer(document.New("doc-1", "Test", "", pages, 40)),
		settings: st,
		notes:    annotation.New(store),
		shell:    &fakeShell{},
		store:    store,
	}

	cfg := Config{
		DocumentID:   "doc-1",
		Viewer:       f.viewer,
		Text:         f.viewer.PageText,
		Engine:       f.engine,
		Recognizer:   f.rec,
		Settings:     st,
		Annotations:  f.notes,
		Shell:        f.shell,
		Region:       f.region,
		Dispatcher:   inline{},
		Scheduler:    f.sched,
		SettleDelay:  settle,
		AnnounceHold: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	f.session = NewSession(cfg)
	f.session.Start()
	return f
}

// finish completes the most recent utterance.
func (f *fixture) finish() {
	f.engine.Finish(f.engine.Last())
}

func (f *fixture) spoken() []string {
	var out []string
	for _, u := range f.engine.Utterances() {
		out = append(out, u.Text)
	}
	return out
}
