// Package annotation stores bookmarks and recorded audio notes per document page.
package annotation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"readaloud/internal/kv"
)

const (
	bookmarkPrefix = "bookmark:"
	notePrefix     = "note:"
	noteIndex      = "noteid:"
	seqKey         = "seq:annotation"
)

// Bookmark marks one page of one document. Presence is the only state.
type Bookmark struct {
	DocumentID string    `msgpack:"document_id"`
	Page       int       `msgpack:"page"`
	Timestamp  time.Time `msgpack:"timestamp"`
	Seq        uint64    `msgpack:"seq"`
}

// AudioNote is a recorded clip attached to a page. Notes are never mutated.
type AudioNote struct {
	ID         uint64    `msgpack:"id"`
	DocumentID string    `msgpack:"document_id"`
	Page       int       `msgpack:"page"`
	AudioRef   string    `msgpack:"audio_ref"`
	Timestamp  time.Time `msgpack:"timestamp"`
	DurationMs int64     `msgpack:"duration_ms"`
}

// Store persists bookmarks and notes through a kv.Store.
type Store struct {
	kv  kv.Store
	now func() time.Time
}

func New(store kv.Store) *Store {
	return &Store{kv: store, now: time.Now}
}

// ToggleBookmark removes the bookmark at (documentID, page) if present,
// otherwise adds one. It returns whether a bookmark exists afterwards.
func (s *Store) ToggleBookmark(documentID string, page int) (bool, error) {
	key := bookmarkKey(documentID, page)

	_, err := s.kv.Get(key)
	switch {
	case err == nil:
		if err := s.kv.Delete(key); err != nil {
			return true, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		logrus.WithFields(logrus.Fields{"document": documentID, "page": page}).Debug("Bookmark removed")
		return false, nil
	case !errors.Is(err, kv.ErrNotFound):
		return false, fmt.Errorf("failed to read bookmark: %w", err)
	}

	seq, err := s.nextSeq()
	if err != nil {
		return false, err
	}
	data, err := msgpack.Marshal(Bookmark{
		DocumentID: documentID,
		Page:       page,
		Timestamp:  s.now(),
		Seq:        seq,
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode bookmark: %w", err)
	}
	if err := s.kv.Set(key, data); err != nil {
		return false, fmt.Errorf("failed to save bookmark: %w", err)
	}

	logrus.WithFields(logrus.Fields{"document": documentID, "page": page}).Debug("Bookmark added")
	return true, nil
}

// HasBookmark reports whether (documentID, page) is bookmarked.
func (s *Store) HasBookmark(documentID string, page int) (bool, error) {
	_, err := s.kv.Get(bookmarkKey(documentID, page))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read bookmark: %w", err)
	}
	return true, nil
}

// BookmarksFor returns the bookmarks of documentID in creation order.
func (s *Store) BookmarksFor(documentID string) ([]Bookmark, error) {
	var out []Bookmark
	err := s.kv.Scan(bookmarkPrefix+documentID+"\x00", func(_ string, value []byte) error {
		var b Bookmark
		if err := msgpack.Unmarshal(value, &b); err != nil {
			return fmt.Errorf("failed to decode bookmark: %w", err)
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// AddAudioNote appends a note with a freshly allocated id.
func (s *Store) AddAudioNote(documentID string, page int, audioRef string, durationMs int64) (AudioNote, error) {
	id, err := s.nextSeq()
	if err != nil {
		return AudioNote{}, err
	}

	note := AudioNote{
		ID:         id,
		DocumentID: documentID,
		Page:       page,
		AudioRef:   audioRef,
		Timestamp:  s.now(),
		DurationMs: durationMs,
	}
	data, err := msgpack.Marshal(note)
	if err != nil {
		return AudioNote{}, fmt.Errorf("failed to encode audio note: %w", err)
	}

	if err := s.kv.Set(noteKey(documentID, id), data); err != nil {
		return AudioNote{}, fmt.Errorf("failed to save audio note: %w", err)
	}
	if err := s.kv.Set(noteIndexKey(id), []byte(documentID)); err != nil {
		return AudioNote{}, fmt.Errorf("failed to index audio note: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"document": documentID,
		"page":     page,
		"id":       id,
	}).Debug("Audio note added")
	return note, nil
}

// GetAudioNote looks a note up by id.
func (s *Store) GetAudioNote(id uint64) (AudioNote, bool, error) {
	documentID, err := s.kv.Get(noteIndexKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return AudioNote{}, false, nil
	}
	if err != nil {
		return AudioNote{}, false, fmt.Errorf("failed to read note index: %w", err)
	}

	raw, err := s.kv.Get(noteKey(string(documentID), id))
	if errors.Is(err, kv.ErrNotFound) {
		return AudioNote{}, false, nil
	}
	if err != nil {
		return AudioNote{}, false, fmt.Errorf("failed to read audio note: %w", err)
	}

	var note AudioNote
	if err := msgpack.Unmarshal(raw, &note); err != nil {
		return AudioNote{}, false, fmt.Errorf("failed to decode audio note: %w", err)
	}
	return note, true, nil
}

// RemoveAudioNote deletes the note with id. Missing ids are ignored.
func (s *Store) RemoveAudioNote(id uint64) error {
	documentID, err := s.kv.Get(noteIndexKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read note index: %w", err)
	}

	if err := s.kv.Delete(noteKey(string(documentID), id)); err != nil {
		return fmt.Errorf("failed to remove audio note: %w", err)
	}
	if err := s.kv.Delete(noteIndexKey(id)); err != nil {
		return fmt.Errorf("failed to remove note index: %w", err)
	}

	logrus.WithField("id", id).Debug("Audio note removed")
	return nil
}

// NotesFor returns the notes of documentID in creation order.
func (s *Store) NotesFor(documentID string) ([]AudioNote, error) {
	var out []AudioNote
	err := s.kv.Scan(notePrefix+documentID+"\x00", func(_ string, value []byte) error {
		var n AudioNote
		if err := msgpack.Unmarshal(value, &n); err != nil {
			return fmt.Errorf("failed to decode audio note: %w", err)
		}
		out = append(out, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// nextSeq allocates the next id from a persisted counter shared by bookmarks
// and notes, so creation order survives restarts.
func (s *Store) nextSeq() (uint64, error) {
	var current uint64
	raw, err := s.kv.Get(seqKey)
	switch {
	case err == nil:
		current, err = strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt annotation sequence: %w", err)
		}
	case !errors.Is(err, kv.ErrNotFound):
		return 0, fmt.Errorf("failed to read annotation sequence: %w", err)
	}

	next := current + 1
	if err := s.kv.Set(seqKey, []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, fmt.Errorf("failed to advance annotation sequence: %w", err)
	}
	return next, nil
}

func bookmarkKey(documentID string, page int) string {
	return fmt.Sprintf("%s%s\x00%010d", bookmarkPrefix, documentID, page)
}

func noteKey(documentID string, id uint64) string {
	return fmt.Sprintf("%s%s\x00%020d", notePrefix, documentID, id)
}

func noteIndexKey(id uint64) string {
	return noteIndex + strconv.FormatUint(id, 10)
}
