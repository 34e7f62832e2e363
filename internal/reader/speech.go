package reader

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"readaloud/internal/speech/tts"
)

type State int

const (
	Idle State = iota
	Speaking
	Paused
)

func (s State) String() string {
	switch s {
	case Speaking:
		return "speaking"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

type EventKind int

const (
	EventStarted EventKind = iota
	EventPaused
	EventResumed
	EventStopped
	EventFinished
	EventFailed
)

// Origin identifies the page an utterance reads.
type Origin struct {
	DocumentID string
	Page       int
}

type Event struct {
	Kind   EventKind
	Origin Origin
	Err    error
}

// Params are the speech parameters applied to every utterance.
type Params struct {
	Rate     float64
	Pitch    float64
	Volume   float64
	VoiceID  string
	Language string
}

// Parameter ranges.
const (
	MinRate   = 0.5
	MaxRate   = 3.0
	MinPitch  = 0.5
	MaxPitch  = 2.0
	MinVolume = 0.0
	MaxVolume = 1.0
)

func DefaultParams() Params {
	return Params{Rate: 1.0, Pitch: 1.0, Volume: 0.8, Language: "en-US"}
}

// Clamped returns p with every numeric field inside its range.
func (p Params) Clamped() Params {
	p.Rate = clamp(p.Rate, MinRate, MaxRate)
	p.Pitch = clamp(p.Pitch, MinPitch, MaxPitch)
	p.Volume = clamp(p.Volume, MinVolume, MaxVolume)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// SpeechController owns the one active utterance. Engine callbacks are
// posted to the dispatcher and matched against the utterance generation they
// were issued for; stale ones are dropped.
type SpeechController struct {
	engine     tts.Engine
	dispatcher Dispatcher
	params     Params
	state      State
	origin     Origin
	gen        uint64
	ended      bool // utterance completed while paused
	subs       []func(Event)
	voices     []tts.Voice
}

// NewSpeechController wraps engine. A nil engine makes every Speak fail with
// FeatureUnavailable.
func NewSpeechController(engine tts.Engine, d Dispatcher, params Params) *SpeechController {
	return &SpeechController{
		engine:     engine,
		dispatcher: d,
		params:     params.Clamped(),
	}
}

func (c *SpeechController) Available() bool { return c.engine != nil }
func (c *SpeechController) State() State { return c.state }
func (c *SpeechController) Origin() Origin { return c.origin }
func (c *SpeechController) Params() Params { return c.params }

func (c *SpeechController) SetParameters(p Params) {
	c.params = p.Clamped()
}

// Subscribe registers fn for every controller event, delivered on the loop.
func (c *SpeechController) Subscribe(fn func(Event)) {
	c.subs = append(c.subs, fn)
}

// Speak starts reading text, superseding whatever was playing.
func (c *SpeechController) Speak(text string, origin Origin) error {
	if c.engine == nil {
		return &Error{Kind: FeatureUnavailable, Op: "speak", Err: ErrSpeechUnavailable}
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	if c.state != Idle {
		if err := c.engine.Cancel(); err != nil {
			logrus.WithError(err).Warn("Failed to cancel active utterance")
		}
	}

	c.gen++
	gen := c.gen
	c.state = Speaking
	c.ended = false
	c.origin = origin

	u := tts.Utterance{
		Text:     text,
		Voice:    c.resolveVoice(),
		Language: c.params.Language,
		Rate:     c.params.Rate,
		Pitch:    c.params.Pitch,
		Volume:   c.params.Volume,
	}
	cb := tts.Callbacks{
		OnEnd: func() {
			c.dispatcher.Post(func() { c.finished(gen) })
		},
		OnError: func(err error) {
			c.dispatcher.Post(func() { c.failed(gen, err) })
		},
	}

	if err := c.engine.Speak(u, cb); err != nil {
		c.gen++
		c.state = Idle
		return &Error{Kind: EngineError, Op: "speak", Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"document": origin.DocumentID,
		"page":     origin.Page,
		"voice":    u.Voice,
		"rate":     u.Rate,
	}).Debug("Utterance started")

	c.emit(Event{Kind: EventStarted, Origin: origin})
	return nil
}

// Pause reports whether playback was paused.
func (c *SpeechController) Pause() bool {
	if c.state != Speaking {
		return false
	}
	if err := c.engine.Pause(); err != nil {
		logrus.WithError(err).Warn("Engine refused to pause")
		return false
	}
	c.state = Paused
	c.emit(Event{Kind: EventPaused, Origin: c.origin})
	return true
}

// Resume reports whether playback was resumed. An utterance whose engine
// finished during the pause completes now.
func (c *SpeechController) Resume() bool {
	if c.state != Paused {
		return false
	}
	if c.ended {
		c.ended = false
		c.state = Idle
		c.emit(Event{Kind: EventResumed, Origin: c.origin})
		c.emit(Event{Kind: EventFinished, Origin: c.origin})
		return true
	}
	if err := c.engine.Resume(); err != nil {
		logrus.WithError(err).Warn("Engine refused to resume")
		return false
	}
	c.state = Speaking
	c.emit(Event{Kind: EventResumed, Origin: c.origin})
	return true
}

// Stop cancels the active utterance, if any, and reports whether one was
// active. Subscribers hear EventStopped on every call.
func (c *SpeechController) Stop() bool {
	active := c.state != Idle
	if active {
		if err := c.engine.Cancel(); err != nil {
			logrus.WithError(err).Warn("Failed to cancel utterance")
		}
	}
	c.gen++
	c.state = Idle
	c.ended = false
	c.emit(Event{Kind: EventStopped, Origin: c.origin})
	return active
}

func (c *SpeechController) finished(gen uint64) {
	if gen != c.gen || c.state == Idle {
		return
	}
	if c.state == Paused {
		c.ended = true
		return
	}
	c.state = Idle
	c.emit(Event{Kind: EventFinished, Origin: c.origin})
}

func (c *SpeechController) failed(gen uint64, err error) {
	if gen != c.gen || c.state == Idle {
		return
	}
	c.state = Idle
	c.ended = false
	logrus.WithError(err).WithField("page", c.origin.Page).Warn("Speech engine failed")
	c.emit(Event{
		Kind:   EventFailed,
		Origin: c.origin,
		Err:    &Error{Kind: EngineError, Op: "speak", Err: err},
	})
}

func (c *SpeechController) emit(ev Event) {
	for _, fn := range c.subs {
		fn(ev)
	}
}

// resolveVoice picks the configured voice, else the first voice for the
// session language, else the first voice. An empty result leaves the choice
// to the engine. The voice list is fetched until the engine reports one.
func (c *SpeechController) resolveVoice() string {
	if len(c.voices) == 0 {
		voices, err := c.engine.Voices()
		if err != nil {
			logrus.WithError(err).Debug("Voice list unavailable")
			return ""
		}
		c.voices = voices
	}
	return ResolveVoice(c.voices, c.params.VoiceID, c.params.Language)
}

func ResolveVoice(voices []tts.Voice, voiceID, lang string) string {
	if len(voices) == 0 {
		return ""
	}
	if voiceID != "" {
		for _, v := range voices {
			if v.Name == voiceID {
				return v.Name
			}
		}
	}
	if prefix := normalizeLocale(lang); prefix != "" {
		for _, v := range voices {
			if strings.HasPrefix(normalizeLocale(v.LanguageCode), prefix) {
				return v.Name
			}
		}
	}
	return voices[0].Name
}

// normalizeLocale canonicalises a BCP-47 tag for prefix comparison, so that
// en_us, en-US and EN-us all compare equal.
func normalizeLocale(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return ""
	}
	if t, err := language.Parse(tag); err == nil {
		tag = t.String()
	}
	return strings.ToLower(tag)
}
