package settings

// Key names one accessibility setting. The names double as persistence keys.
type Key string

const (
	ScreenReaderEnabled  Key = "screenReaderEnabled"
	HighContrast         Key = "highContrast"
	LargeText            Key = "largeText"
	FocusMode            Key = "focusMode"
	ReducedMotion        Key = "reducedMotion"
	VoiceCommandsEnabled Key = "voiceCommandsEnabled"
	AutoRead             Key = "autoRead"
	OfflineMode          Key = "offlineMode"
	LoopReading          Key = "loopReading"

	ReadingSpeed Key = "readingSpeed"
	VoicePitch   Key = "voicePitch"
	VoiceVolume  Key = "voiceVolume"

	VoiceID  Key = "voiceId"
	Language Key = "language"
)

type kind int

const (
	kindBool kind = iota
	kindFloat
	kindString
)

type field struct {
	kind     kind
	def      any
	min, max float64
}

var schema = map[Key]field{
	ScreenReaderEnabled:  {kind: kindBool, def: false},
	HighContrast:         {kind: kindBool, def: false},
	LargeText:            {kind: kindBool, def: false},
	FocusMode:            {kind: kindBool, def: false},
	ReducedMotion:        {kind: kindBool, def: false},
	VoiceCommandsEnabled: {kind: kindBool, def: true},
	AutoRead:             {kind: kindBool, def: false},
	OfflineMode:          {kind: kindBool, def: false},
	LoopReading:          {kind: kindBool, def: false},

	ReadingSpeed: {kind: kindFloat, def: 1.0, min: 0.5, max: 3.0},
	VoicePitch:   {kind: kindFloat, def: 1.0, min: 0.5, max: 2.0},
	VoiceVolume:  {kind: kindFloat, def: 0.8, min: 0.0, max: 1.0},

	VoiceID:  {kind: kindString, def: ""},
	Language: {kind: kindString, def: "en-US"},
}

// order is the presentation order used by Keys.
var order = []Key{
	ScreenReaderEnabled, HighContrast, LargeText, FocusMode, ReducedMotion,
	VoiceCommandsEnabled, AutoRead, OfflineMode, LoopReading,
	ReadingSpeed, VoicePitch, VoiceVolume, VoiceID, Language,
}

// Keys returns every key in the schema.
func Keys() []Key {
	return append([]Key(nil), order...)
}

// ToggleKeys returns the boolean keys.
func ToggleKeys() []Key {
	var out []Key
	for _, k := range order {
		if schema[k].kind == kindBool {
			out = append(out, k)
		}
	}
	return out
}

// IsVisual reports whether changing key has a document-wide visual effect.
func IsVisual(key Key) bool {
	switch key {
	case HighContrast, LargeText, FocusMode, ReducedMotion:
		return true
	}
	return false
}

// Valid reports whether key is part of the schema.
func Valid(key Key) bool {
	_, ok := schema[key]
	return ok
}

// Clamp limits a numeric setting to its allowed range.
func Clamp(key Key, v float64) float64 {
	f, ok := schema[key]
	if !ok || f.kind != kindFloat {
		return v
	}
	if v < f.min {
		return f.min
	}
	if v > f.max {
		return f.max
	}
	return v
}
