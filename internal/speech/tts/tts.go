// internal/speech/tts/tts.go
package tts

// Config selects an engine. Speech parameters travel with each Utterance.
type Config struct {
	Type      string
	CachePath string
}

// Utterance is one request to speak a piece of text.
type Utterance struct {
	Text     string
	Voice    string // engine voice name, empty for the engine default
	Language string // BCP-47 tag, e.g. en-US
	Rate     float64
	Pitch    float64
	Volume   float64
}

// Callbacks report the outcome of one utterance. They may run on any goroutine.
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	OnError func(error)
}

func (c Callbacks) start() {
	if c.OnStart != nil {
		c.OnStart()
	}
}

func (c Callbacks) end() {
	if c.OnEnd != nil {
		c.OnEnd()
	}
}

func (c Callbacks) fail(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

// Engine interface for text-to-speech functionality.
// Speak returns as soon as the utterance is accepted and replaces any active
// one. Cancel drops the active utterance; engines do their best not to report
// completion for it afterwards.
type Engine interface {
	Speak(u Utterance, cb Callbacks) error
	Pause() error
	Resume() error
	Cancel() error
	Voices() ([]Voice, error)
}

// CacheableEngine extends Engine with cache management capabilities
type CacheableEngine interface {
	Engine
	GetCacheStats() (map[string]interface{}, error)
	ClearCache() error
}

// Voice provides detailed information about available voices
type Voice struct {
	Name         string `json:"name"`
	LanguageCode string `json:"language_code"`
	Gender       string `json:"gender"`
	Natural      bool   `json:"natural"`
	Description  string `json:"description"`
}
