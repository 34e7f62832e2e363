package asr

import (
	"strings"
	"sync"
)

// TypedRecognizer stands in for a microphone: while a session is open the
// next line fed to it becomes the transcript.
type TypedRecognizer struct {
	mu        sync.Mutex
	handler   Handler
	listening bool
}

func NewTypedRecognizer() *TypedRecognizer {
	return &TypedRecognizer{}
}

func (r *TypedRecognizer) Start(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listening {
		return ErrBusy
	}
	r.handler = h
	r.listening = true
	return nil
}

func (r *TypedRecognizer) Stop() error {
	h, ok := r.close()
	if ok {
		h.end()
	}
	return nil
}

// Feed delivers text as the transcript of the open session. It reports false
// when nobody is listening.
func (r *TypedRecognizer) Feed(text string) bool {
	h, ok := r.close()
	if !ok {
		return false
	}
	if text = strings.TrimSpace(text); text != "" {
		h.result(text)
	}
	h.end()
	return true
}

// Deny fails the open session as if microphone access had been refused.
func (r *TypedRecognizer) Deny() bool {
	h, ok := r.close()
	if ok {
		h.fail(ErrPermissionDenied)
	}
	return ok
}

func (r *TypedRecognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

func (r *TypedRecognizer) close() (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.listening {
		return Handler{}, false
	}
	h := r.handler
	r.handler = Handler{}
	r.listening = false
	return h, true
}
