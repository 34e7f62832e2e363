// Package audio wraps the beep decoders and the shared speaker.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// SampleRate is the rate the speaker is initialised with. Streams at other
// rates are resampled before playback.
const SampleRate beep.SampleRate = 44100

var (
	speakerOnce sync.Once
	speakerErr  error
)

// Open decodes an mp3 or wav file chosen by extension.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open audio %s: %w", path, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode audio %s: %w", path, err)
	}
	return streamer, format, nil
}

// Duration returns the playing time of the file at path.
func Duration(path string) (time.Duration, error) {
	streamer, format, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// InitSpeaker initialises the process-wide speaker once.
func InitSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
	})
	return speakerErr
}

// Resample converts s to the speaker rate when needed.
func Resample(s beep.Streamer, format beep.Format) beep.Streamer {
	if format.SampleRate == SampleRate {
		return s
	}
	return beep.Resample(4, format.SampleRate, SampleRate, s)
}

// PlayFile plays path to completion, returning once playback ends.
func PlayFile(path string) error {
	if err := InitSpeaker(); err != nil {
		return fmt.Errorf("failed to initialise speaker: %w", err)
	}

	streamer, format, err := Open(path)
	if err != nil {
		return err
	}
	defer streamer.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(Resample(streamer, format), beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
