package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"readaloud/internal/kv"
)

const keyPrefix = "settings:"

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Change describes one applied mutation.
type Change struct {
	Key      Key
	Value    any
	Previous any
}

// Settings is a typed snapshot of every accessibility setting.
type Settings struct {
	ScreenReaderEnabled  bool
	HighContrast         bool
	LargeText            bool
	FocusMode            bool
	ReducedMotion        bool
	VoiceCommandsEnabled bool
	AutoRead             bool
	OfflineMode          bool
	LoopReading          bool
	ReadingSpeed         float64
	VoicePitch           float64
	VoiceVolume          float64
	VoiceID              string
	Language             string
}

// Store is the process-wide accessibility settings row. Every Set is written
// through to the backing kv store before it returns.
type Store struct {
	kv          kv.Store
	defaults    map[Key]any
	values      map[Key]any
	subscribers map[int]func(Change)
	nextSub     int
}

// Load reads every key from store, falling back to defaults for missing or
// unreadable entries. overrides replaces the built-in default of any key and
// is validated like Set; a rejected override keeps the built-in default.
func Load(store kv.Store, overrides map[string]any) (*Store, error) {
	s := &Store{
		kv:          store,
		defaults:    make(map[Key]any, len(schema)),
		values:      make(map[Key]any, len(schema)),
		subscribers: make(map[int]func(Change)),
	}

	for key, f := range schema {
		s.defaults[key] = f.def
		raw, ok := overrides[string(key)]
		if !ok {
			continue
		}
		v, err := coerce(key, f, raw)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Ignoring configured default")
			continue
		}
		s.defaults[key] = v
	}

	for _, key := range order {
		raw, err := store.Get(keyPrefix + string(key))
		if errors.Is(err, kv.ErrNotFound) {
			s.values[key] = s.defaults[key]
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
		}

		v, err := decode(key, raw)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Discarding unreadable setting")
			s.values[key] = s.defaults[key]
			continue
		}
		s.values[key] = v
	}

	return s, nil
}

// Get returns the current value of key.
func (s *Store) Get(key Key) (any, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return v, nil
}

func (s *Store) Bool(key Key) bool {
	b, _ := s.values[key].(bool)
	return b
}

func (s *Store) Float(key Key) float64 {
	f, _ := s.values[key].(float64)
	return f
}

func (s *Store) String(key Key) string {
	str, _ := s.values[key].(string)
	return str
}

// Set validates value, persists it and notifies subscribers before returning.
// Numeric values outside their range are clamped.
func (s *Store) Set(key Key, value any) error {
	f, ok := schema[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	v, err := coerce(key, f, value)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	if err := s.kv.Set(keyPrefix+string(key), data); err != nil {
		return fmt.Errorf("failed to persist setting %s: %w", key, err)
	}

	prev := s.values[key]
	s.values[key] = v

	logrus.WithFields(logrus.Fields{
		"key":   key,
		"value": v,
	}).Debug("Setting updated")

	s.notify(Change{Key: key, Value: v, Previous: prev})
	return nil
}

// SetString parses a textual value (as typed on a command line) and sets it.
func (s *Store) SetString(key Key, raw string) error {
	f, ok := schema[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	switch f.kind {
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false", ErrInvalidValue, key)
		}
		return s.Set(key, b)
	case kindFloat:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number", ErrInvalidValue, key)
		}
		return s.Set(key, n)
	default:
		return s.Set(key, raw)
	}
}

// Toggle flips a boolean setting and returns its new value.
func (s *Store) Toggle(key Key) (bool, error) {
	f, ok := schema[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if f.kind != kindBool {
		return false, fmt.Errorf("%w: %s is not a toggle", ErrInvalidValue, key)
	}

	next := !s.Bool(key)
	if err := s.Set(key, next); err != nil {
		return !next, err
	}
	return next, nil
}

// Reset restores every key to its default.
func (s *Store) Reset() error {
	for _, key := range order {
		if err := s.Set(key, s.defaults[key]); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers fn to run synchronously after every Set.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() { delete(s.subscribers, id) }
}

// Snapshot returns the current values as a struct.
func (s *Store) Snapshot() Settings {
	return Settings{
		ScreenReaderEnabled:  s.Bool(ScreenReaderEnabled),
		HighContrast:         s.Bool(HighContrast),
		LargeText:            s.Bool(LargeText),
		FocusMode:            s.Bool(FocusMode),
		ReducedMotion:        s.Bool(ReducedMotion),
		VoiceCommandsEnabled: s.Bool(VoiceCommandsEnabled),
		AutoRead:             s.Bool(AutoRead),
		OfflineMode:          s.Bool(OfflineMode),
		LoopReading:          s.Bool(LoopReading),
		ReadingSpeed:         s.Float(ReadingSpeed),
		VoicePitch:           s.Float(VoicePitch),
		VoiceVolume:          s.Float(VoiceVolume),
		VoiceID:              s.String(VoiceID),
		Language:             s.String(Language),
	}
}

func (s *Store) notify(c Change) {
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subscribers[i]; ok {
			fn(c)
		}
	}
}

func coerce(key Key, f field, value any) (any, error) {
	switch f.kind {
	case kindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a bool, got %T", ErrInvalidValue, key, value)
		}
		return b, nil
	case kindFloat:
		var n float64
		switch v := value.(type) {
		case float64:
			n = v
		case float32:
			n = float64(v)
		case int:
			n = float64(v)
		case int64:
			n = float64(v)
		default:
			return nil, fmt.Errorf("%w: %s expects a number, got %T", ErrInvalidValue, key, value)
		}
		if math.IsNaN(n) {
			return nil, fmt.Errorf("%w: %s is not a number", ErrInvalidValue, key)
		}
		return Clamp(key, n), nil
	default:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, key, value)
		}
		return str, nil
	}
}

func decode(key Key, raw []byte) (any, error) {
	switch schema[key].kind {
	case kindBool:
		var b bool
		err := msgpack.Unmarshal(raw, &b)
		return b, err
	case kindFloat:
		var f float64
		if err := msgpack.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		if math.IsNaN(f) {
			return nil, fmt.Errorf("%w: %s is not a number", ErrInvalidValue, key)
		}
		return Clamp(key, f), nil
	default:
		var str string
		err := msgpack.Unmarshal(raw, &str)
		return str, err
	}
}
