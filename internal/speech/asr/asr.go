// Package asr turns spoken (or typed) input into transcripts for the voice
// command interpreter.
package asr

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is reported when the microphone cannot be used.
var ErrPermissionDenied = errors.New("microphone permission denied")

// ErrBusy is returned by Start while a session is already open.
var ErrBusy = errors.New("recognition already in progress")

type Config struct {
	Type    string
	Command string
	Args    []string
}

// Handler receives the outcome of one recognition session. OnResult fires at
// most once with the final transcript; OnEnd always fires last unless OnError
// did. Callbacks may run on any goroutine.
type Handler struct {
	OnResult func(transcript string)
	OnEnd    func()
	OnError  func(error)
}

func (h Handler) result(text string) {
	if h.OnResult != nil {
		h.OnResult(text)
	}
}

func (h Handler) end() {
	if h.OnEnd != nil {
		h.OnEnd()
	}
}

func (h Handler) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Recognizer runs single-utterance recognition sessions.
type Recognizer interface {
	Start(h Handler) error
	Stop() error
}

type RecognizerType string

const (
	RecognizerTypeTyped RecognizerType = "typed"
	RecognizerTypeExec  RecognizerType = "exec"
	RecognizerTypeNone  RecognizerType = "none"
)

// NewRecognizer builds the configured recognizer. It returns nil without an
// error when recognition is switched off.
func NewRecognizer(c Config) (Recognizer, error) {
	switch RecognizerType(c.Type) {
	case RecognizerTypeTyped, "":
		return NewTypedRecognizer(), nil
	case RecognizerTypeExec:
		r, err := NewExecRecognizer(c.Command, c.Args...)
		if err != nil {
			return nil, err
		}
		return r, nil
	case RecognizerTypeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported recognizer type: %s", c.Type)
	}
}
