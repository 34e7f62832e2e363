package annotation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"readaloud/internal/audio"
)

// ImportAudio copies a recorded clip into dir under a fresh name and returns
// the reference to store on the note together with the clip duration.
func ImportAudio(dir, src string) (ref string, durationMs int64, err error) {
	d, err := audio.Duration(src)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create notes directory: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", 0, fmt.Errorf("generate nanoid: %w", err)
	}
	name := "note-" + id + strings.ToLower(filepath.Ext(src))

	in, err := os.Open(src)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open clip: %w", err)
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create note file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", 0, fmt.Errorf("failed to copy clip: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to write note file: %w", err)
	}

	return name, d.Milliseconds(), nil
}

// AudioPath resolves a note's audio reference inside dir.
func AudioPath(dir string, note AudioNote) string {
	return filepath.Join(dir, note.AudioRef)
}

// PlayAudio plays a note's clip through the speaker and blocks until it ends.
func PlayAudio(dir string, note AudioNote) error {
	return audio.PlayFile(AudioPath(dir, note))
}
