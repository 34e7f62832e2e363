//go:build windows

package tts

import "errors"

// errPauseUnsupported is returned because Windows has no SIGSTOP/SIGCONT
// equivalent for a child process.
var errPauseUnsupported = errors.New("pause not supported by eSpeak on Windows")

func (e *ESpeakEngine) pauseProcess() error {
	return errPauseUnsupported
}

func (e *ESpeakEngine) resumeProcess() error {
	return errPauseUnsupported
}
