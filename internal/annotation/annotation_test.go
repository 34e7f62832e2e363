package annotation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readaloud/internal/kv"
)

func setupTestAnnotations(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	s := New(mem)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s, mem
}

func TestToggleBookmarkPairs(t *testing.T) {
	s, _ := setupTestAnnotations(t)

	present, err := s.ToggleBookmark("doc-1", 4)
	require.NoError(t, err)
	assert.True(t, present)

	has, err := s.HasBookmark("doc-1", 4)
	require.NoError(t, err)
	assert.True(t, has)

	present, err = s.ToggleBookmark("doc-1", 4)
	require.NoError(t, err)
	assert.False(t, present)

	has, err = s.HasBookmark("doc-1", 4)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBookmarksForCreationOrder(t *testing.T) {
	s, _ := setupTestAnnotations(t)

	for _, page := range []int{9, 2, 5} {
		_, err := s.ToggleBookmark("doc-1", page)
		require.NoError(t, err)
	}
	_, err := s.ToggleBookmark("doc-2", 1)
	require.NoError(t, err)

	marks, err := s.BookmarksFor("doc-1")
	require.NoError(t, err)
	require.Len(t, marks, 3)
	assert.Equal(t, 9, marks[0].Page)
	assert.Equal(t, 2, marks[1].Page)
	assert.Equal(t, 5, marks[2].Page)
	assert.True(t, marks[0].Timestamp.Before(marks[1].Timestamp))
}

func TestBookmarksDoNotLeakAcrossDocumentPrefixes(t *testing.T) {
	s, _ := setupTestAnnotations(t)

	_, err := s.ToggleBookmark("doc", 1)
	require.NoError(t, err)
	_, err = s.ToggleBookmark("doc-extended", 1)
	require.NoError(t, err)

	marks, err := s.BookmarksFor("doc")
	require.NoError(t, err)
	assert.Len(t, marks, 1)
}

func TestAudioNotesLifecycle(t *testing.T) {
	s, _ := setupTestAnnotations(t)

	first, err := s.AddAudioNote("doc-1", 3, "note-a.wav", 1200)
	require.NoError(t, err)
	second, err := s.AddAudioNote("doc-1", 1, "note-b.wav", 800)
	require.NoError(t, err)
	_, err = s.AddAudioNote("doc-2", 1, "note-c.wav", 500)
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)

	notes, err := s.NotesFor("doc-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, "note-a.wav", notes[0].AudioRef)
	assert.Equal(t, int64(1200), notes[0].DurationMs)
	assert.Equal(t, second.ID, notes[1].ID)

	got, ok, err := s.GetAudioNote(second.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got.Page)

	require.NoError(t, s.RemoveAudioNote(first.ID))
	notes, err = s.NotesFor("doc-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, second.ID, notes[0].ID)

	// Removing again is a no-op
	require.NoError(t, s.RemoveAudioNote(first.ID))
	_, ok, err = s.GetAudioNote(first.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoteIDsSurviveReload(t *testing.T) {
	s, mem := setupTestAnnotations(t)

	first, err := s.AddAudioNote("doc-1", 1, "a.wav", 10)
	require.NoError(t, err)

	reloaded := New(mem)
	next, err := reloaded.AddAudioNote("doc-1", 1, "b.wav", 10)
	require.NoError(t, err)
	assert.Greater(t, next.ID, first.ID)
}

func TestImportAudio(t *testing.T) {
	src := filepath.Join(t.TempDir(), "Clip.WAV")
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, beep.Silence(format.SampleRate.N(2*time.Second)), format))
	require.NoError(t, f.Close())

	dir := filepath.Join(t.TempDir(), "notes")
	ref, durationMs, err := ImportAudio(dir, src)
	require.NoError(t, err)

	assert.Equal(t, int64(2000), durationMs)
	assert.Regexp(t, `^note-.+\.wav$`, ref)
	assert.FileExists(t, AudioPath(dir, AudioNote{AudioRef: ref}))
}
