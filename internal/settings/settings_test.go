package settings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readaloud/internal/kv"
)

func setupTestSettings(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	s, err := Load(mem, nil)
	require.NoError(t, err)
	return s, mem
}

func TestLoadDefaults(t *testing.T) {
	s, _ := setupTestSettings(t)

	snap := s.Snapshot()
	assert.False(t, snap.HighContrast)
	assert.True(t, snap.VoiceCommandsEnabled)
	assert.False(t, snap.AutoRead)
	assert.Equal(t, 1.0, snap.ReadingSpeed)
	assert.Equal(t, 1.0, snap.VoicePitch)
	assert.Equal(t, 0.8, snap.VoiceVolume)
	assert.Equal(t, "en-US", snap.Language)
	assert.Empty(t, snap.VoiceID)
}

func TestLoadOverridesDefaults(t *testing.T) {
	s, err := Load(kv.NewMemory(), map[string]any{
		"autoRead":     true,
		"readingSpeed": 1.5,
		"voiceVolume":  7.0,
		"language":     "fr-FR",
		"voicePitch":   "high",
	})
	require.NoError(t, err)

	assert.True(t, s.Bool(AutoRead))
	assert.Equal(t, 1.5, s.Float(ReadingSpeed))
	assert.Equal(t, 1.0, s.Float(VoiceVolume), "clamped like Set")
	assert.Equal(t, "fr-FR", s.String(Language))
	// a mistyped override keeps the built-in default
	assert.Equal(t, 1.0, s.Float(VoicePitch))

	// Reset returns to the configured default
	require.NoError(t, s.Set(ReadingSpeed, 2.0))
	require.NoError(t, s.Reset())
	assert.Equal(t, 1.5, s.Float(ReadingSpeed))
}

func TestNaNIsRejected(t *testing.T) {
	s, _ := setupTestSettings(t)

	err := s.SetString(ReadingSpeed, "NaN")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorIs(t, s.Set(VoiceVolume, math.NaN()), ErrInvalidValue)
	assert.Equal(t, 1.0, s.Float(ReadingSpeed))
	assert.Equal(t, 0.8, s.Float(VoiceVolume))

	d, err := Load(kv.NewMemory(), map[string]any{"voicePitch": math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Float(VoicePitch))
}

func TestSetPersistsAcrossFreshLoad(t *testing.T) {
	s, mem := setupTestSettings(t)

	require.NoError(t, s.Set(HighContrast, true))
	require.NoError(t, s.Set(ReadingSpeed, 1.4))
	require.NoError(t, s.Set(VoiceID, "en-gb"))

	reloaded, err := Load(mem, nil)
	require.NoError(t, err)
	assert.True(t, reloaded.Bool(HighContrast))
	assert.Equal(t, 1.4, reloaded.Float(ReadingSpeed))
	assert.Equal(t, "en-gb", reloaded.String(VoiceID))
}

func TestSetClampsNumericValues(t *testing.T) {
	s, _ := setupTestSettings(t)

	require.NoError(t, s.Set(ReadingSpeed, 9.0))
	assert.Equal(t, 3.0, s.Float(ReadingSpeed))

	require.NoError(t, s.Set(VoicePitch, 0.1))
	assert.Equal(t, 0.5, s.Float(VoicePitch))

	require.NoError(t, s.Set(VoiceVolume, -1))
	assert.Equal(t, 0.0, s.Float(VoiceVolume))
}

func TestSetRejectsWrongTypesAndUnknownKeys(t *testing.T) {
	s, _ := setupTestSettings(t)

	assert.ErrorIs(t, s.Set(HighContrast, "yes"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(ReadingSpeed, "fast"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(Key("fontFamily"), "serif"), ErrUnknownKey)

	_, err := s.Get(Key("fontFamily"))
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSetNotifiesSubscribersBeforeReturning(t *testing.T) {
	s, _ := setupTestSettings(t)

	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.Set(LargeText, true))
	require.Len(t, changes, 1)
	assert.Equal(t, LargeText, changes[0].Key)
	assert.Equal(t, true, changes[0].Value)
	assert.Equal(t, false, changes[0].Previous)

	unsubscribe()
	require.NoError(t, s.Set(LargeText, false))
	assert.Len(t, changes, 1)
}

func TestToggle(t *testing.T) {
	s, _ := setupTestSettings(t)

	on, err := s.Toggle(FocusMode)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = s.Toggle(FocusMode)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = s.Toggle(ReadingSpeed)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestSetString(t *testing.T) {
	s, _ := setupTestSettings(t)

	require.NoError(t, s.SetString(OfflineMode, "true"))
	assert.True(t, s.Bool(OfflineMode))

	require.NoError(t, s.SetString(VoiceVolume, "0.25"))
	assert.Equal(t, 0.25, s.Float(VoiceVolume))

	assert.ErrorIs(t, s.SetString(OfflineMode, "maybe"), ErrInvalidValue)
}

func TestLoadDiscardsCorruptValues(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(keyPrefix+string(HighContrast), []byte{0xc1}))

	s, err := Load(mem, nil)
	require.NoError(t, err)
	assert.False(t, s.Bool(HighContrast))
}

func TestReset(t *testing.T) {
	s, _ := setupTestSettings(t)
	require.NoError(t, s.Set(LoopReading, true))
	require.NoError(t, s.Set(ReadingSpeed, 2.0))

	require.NoError(t, s.Reset())
	assert.False(t, s.Bool(LoopReading))
	assert.Equal(t, 1.0, s.Float(ReadingSpeed))
}

func TestSchemaHelpers(t *testing.T) {
	assert.True(t, IsVisual(HighContrast))
	assert.False(t, IsVisual(AutoRead))
	assert.True(t, Valid(VoiceID))
	assert.False(t, Valid(Key("nope")))
	assert.Len(t, ToggleKeys(), 9)
	assert.Len(t, Keys(), 14)
}
