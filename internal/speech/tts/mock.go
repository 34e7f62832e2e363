package tts

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// MockTTSEngine prints instead of speaking. With auto-completion enabled it
// reports the end of each utterance after a simulated reading time; without
// it, tests drive completion explicitly.
type MockTTSEngine struct {
	mu           sync.Mutex
	autoComplete bool
	maxDuration  time.Duration
	out          io.Writer

	utterances []Utterance
	callbacks  []Callbacks
	active     int
	paused     bool
	cancels    int
	voices     []Voice
	timer      *time.Timer
	deadline   time.Time
	remaining  time.Duration // reading time left when paused
}

// NewMockTTSEngine returns a console mock that finishes utterances on its own.
func NewMockTTSEngine(c Config) *MockTTSEngine {
	return &MockTTSEngine{
		autoComplete: true,
		maxDuration:  3 * time.Second,
		out:          os.Stdout,
		active:       -1,
		voices:       []Voice{{Name: "mock-voice", LanguageCode: "en-US"}},
	}
}

// NewManualMockEngine returns a mock whose utterances only end when told to.
func NewManualMockEngine() *MockTTSEngine {
	return &MockTTSEngine{out: io.Discard, active: -1}
}

func (m *MockTTSEngine) Speak(u Utterance, cb Callbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
	m.utterances = append(m.utterances, u)
	m.callbacks = append(m.callbacks, cb)
	m.active = len(m.utterances) - 1
	m.paused = false
	m.remaining = 0

	if !m.autoComplete {
		return nil
	}

	// Simulate reading time based on text length
	words := len(strings.Fields(u.Text))
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	duration := time.Duration(float64(words) / (150.0 * rate) * float64(time.Minute))
	if duration > m.maxDuration {
		duration = m.maxDuration
	}

	color.New(color.FgYellow).Fprintf(m.out, "🔊 Reading aloud... (simulated for %v)\n", duration.Round(time.Millisecond))

	go cb.start()
	m.startTimerLocked(duration)
	return nil
}

// Pause holds the simulated reading time until Resume.
func (m *MockTTSEngine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active < 0 || m.paused {
		return nil
	}
	m.paused = true
	if m.timer != nil {
		m.remaining = time.Until(m.deadline)
		m.stopTimerLocked()
	}
	return nil
}

func (m *MockTTSEngine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused {
		return nil
	}
	m.paused = false
	if m.autoComplete && m.active >= 0 {
		m.startTimerLocked(max(m.remaining, 0))
	}
	m.remaining = 0
	return nil
}

func (m *MockTTSEngine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
	m.active = -1
	m.paused = false
	m.cancels++
	return nil
}

func (m *MockTTSEngine) Voices() ([]Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Voice(nil), m.voices...), nil
}

// SetOutput redirects the console messages, e.g. away from a full-screen UI.
func (m *MockTTSEngine) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = w
}

// SetVoices replaces the voice list, e.g. to simulate voices arriving late.
func (m *MockTTSEngine) SetVoices(voices []Voice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices = voices
}

// Finish reports completion of the i-th utterance, whether or not it is
// still the active one.
func (m *MockTTSEngine) Finish(i int) {
	m.mu.Lock()
	if i < 0 || i >= len(m.callbacks) {
		m.mu.Unlock()
		return
	}
	cb := m.callbacks[i]
	if m.active == i {
		m.active = -1
		m.paused = false
	}
	m.mu.Unlock()

	cb.end()
}

// Fail reports an engine error for the i-th utterance.
func (m *MockTTSEngine) Fail(i int, err error) {
	m.mu.Lock()
	if i < 0 || i >= len(m.callbacks) {
		m.mu.Unlock()
		return
	}
	cb := m.callbacks[i]
	if m.active == i {
		m.active = -1
		m.paused = false
	}
	m.mu.Unlock()

	cb.fail(err)
}

// Start reports that the i-th utterance began playing.
func (m *MockTTSEngine) Start(i int) {
	m.mu.Lock()
	if i < 0 || i >= len(m.callbacks) {
		m.mu.Unlock()
		return
	}
	cb := m.callbacks[i]
	m.mu.Unlock()

	cb.start()
}

// Utterances returns everything passed to Speak so far.
func (m *MockTTSEngine) Utterances() []Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Utterance(nil), m.utterances...)
}

// Last returns the index of the most recent utterance, or -1.
func (m *MockTTSEngine) Last() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.utterances) - 1
}

// IsPlaying reports whether an utterance is active and not paused.
func (m *MockTTSEngine) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active >= 0 && !m.paused
}

// IsPaused reports whether the active utterance is paused.
func (m *MockTTSEngine) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Cancels counts calls to Cancel.
func (m *MockTTSEngine) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

func (m *MockTTSEngine) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *MockTTSEngine) startTimerLocked(d time.Duration) {
	idx := m.active
	m.deadline = time.Now().Add(d)
	m.timer = time.AfterFunc(d, func() { m.Finish(idx) })
}
