// Cross-platform eSpeak implementation
package tts

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ESpeakEngine implements TTS using eSpeak/eSpeak-NG
type ESpeakEngine struct {
	path   string
	cmd    *exec.Cmd
	gen    uint64
	paused bool
	mutex  sync.Mutex
}

// newESpeakEngine creates a new eSpeak TTS engine
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	// Check if eSpeak is available
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	// Test the installation
	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return &ESpeakEngine{path: espeakPath}, nil
}

func findESpeakExecutable() (string, error) {
	// Try different possible eSpeak executables
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

// espeakArgs maps an utterance onto eSpeak flags. The text itself is fed on stdin.
func espeakArgs(u Utterance) []string {
	args := []string{}

	// Set voice, falling back to the language tag
	switch {
	case u.Voice != "":
		args = append(args, "-v", u.Voice)
	case u.Language != "":
		args = append(args, "-v", strings.ToLower(u.Language))
	}

	// Set speed (words per minute, default is 175)
	args = append(args, "-s", strconv.Itoa(int(175*u.Rate)))

	// Set pitch (0-99, default is 50)
	pitch := int(50 * u.Pitch)
	if pitch > 99 {
		pitch = 99
	}
	args = append(args, "-p", strconv.Itoa(pitch))

	// Set amplitude (0-200, default is 100)
	args = append(args, "-a", strconv.Itoa(int(100*u.Volume)))

	return append(args, "--stdin")
}

func (e *ESpeakEngine) Speak(u Utterance, cb Callbacks) error {
	e.mutex.Lock()
	e.cancelLocked()

	cmd := exec.Command(e.path, espeakArgs(u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	if err := cmd.Start(); err != nil {
		e.mutex.Unlock()
		return fmt.Errorf("failed to start eSpeak: %w", err)
	}
	e.cmd = cmd
	gen := e.gen
	e.mutex.Unlock()

	cb.start()

	go func() {
		err := cmd.Wait()

		e.mutex.Lock()
		current := e.gen == gen
		if current {
			e.cmd = nil
			e.paused = false
		}
		e.mutex.Unlock()

		// Killed by Cancel or superseded by a newer Speak
		if !current {
			return
		}
		if err != nil {
			logrus.WithError(err).Warn("eSpeak exited with an error")
			cb.fail(fmt.Errorf("eSpeak: %w", err))
			return
		}
		cb.end()
	}()

	return nil
}

func (e *ESpeakEngine) Cancel() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.cancelLocked()
}

func (e *ESpeakEngine) cancelLocked() error {
	e.gen++
	cmd := e.cmd
	e.cmd = nil
	e.paused = false

	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			return err
		}
	}
	return nil
}

func (e *ESpeakEngine) Pause() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.cmd == nil || e.paused {
		return nil
	}
	if err := e.pauseProcess(); err != nil {
		return err
	}
	e.paused = true
	return nil
}

func (e *ESpeakEngine) Resume() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.cmd == nil || !e.paused {
		return nil
	}
	if err := e.resumeProcess(); err != nil {
		return err
	}
	e.paused = false
	return nil
}

func (e *ESpeakEngine) Voices() ([]Voice, error) {
	output, err := exec.Command(e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}
	return parseESpeakVoices(string(output)), nil
}

func parseESpeakVoices(output string) []Voice {
	lines := strings.Split(output, "\n")
	voices := make([]Voice, 0)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Parse voice line: Pty Language Age/Gender VoiceName          File          Other Languages
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		gender := ""
		if parts := strings.Split(fields[2], "/"); len(parts) == 2 {
			switch parts[1] {
			case "M":
				gender = "male"
			case "F":
				gender = "female"
			}
		}

		voices = append(voices, Voice{
			Name:         fields[4],
			LanguageCode: fields[1],
			Gender:       gender,
			Description:  strings.ReplaceAll(fields[3], "_", " "),
		})
	}

	return voices
}
