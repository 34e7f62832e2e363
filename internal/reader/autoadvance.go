package reader

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSettleDelay is the pause between finishing one page and starting
// the next.
const DefaultSettleDelay = 800 * time.Millisecond

// PageText fetches the text of a page.
type PageText func(page int) (string, error)

// AutoAdvance continues reading onto the next page (or back to the first one
// when looping) after each finished utterance. The continuation is a
// cancellable task: any stop, pause, new utterance or page change while it
// waits discards it.
type AutoAdvance struct {
	speech     *SpeechController
	pages      *Pagination
	sched      Scheduler
	text       PageText
	documentID string
	delay      time.Duration

	autoRead bool
	loop     bool

	token   uint64
	pending Timer

	// OnError is told about failures of a continuation.
	OnError func(error)
}

func NewAutoAdvance(speech *SpeechController, pages *Pagination, sched Scheduler, documentID string, text PageText, delay time.Duration) *AutoAdvance {
	a := &AutoAdvance{
		speech:     speech,
		pages:      pages,
		sched:      sched,
		text:       text,
		documentID: documentID,
		delay:      delay,
	}
	speech.Subscribe(a.handle)
	pages.Subscribe(func(int) { a.Cancel() })
	return a
}

func (a *AutoAdvance) SetAutoRead(on bool) {
	a.autoRead = on
	if !on {
		a.Cancel()
	}
}

func (a *AutoAdvance) SetLoop(on bool) { a.loop = on }
func (a *AutoAdvance) AutoRead() bool { return a.autoRead }
func (a *AutoAdvance) Loop() bool { return a.loop }

// Pending reports whether a continuation is waiting to fire.
func (a *AutoAdvance) Pending() bool {
	return a.pending != nil
}

// Cancel discards the pending continuation.
func (a *AutoAdvance) Cancel() {
	a.token++
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}

func (a *AutoAdvance) handle(ev Event) {
	switch ev.Kind {
	case EventFinished:
		a.finished()
	case EventStarted, EventPaused, EventStopped:
		a.Cancel()
	}
}

func (a *AutoAdvance) finished() {
	if !a.autoRead {
		return
	}

	from, total := a.pages.Current(), a.pages.Total()
	var target int
	switch {
	case from < total:
		target = from + 1
	case from == total && a.loop:
		target = 1
	default:
		return
	}

	a.Cancel()
	token := a.token
	a.pending = a.sched.After(a.delay, func() {
		a.fire(token, from, target)
	})
}

func (a *AutoAdvance) fire(token uint64, from, target int) {
	if token != a.token {
		return
	}
	a.pending = nil

	// The user may have stopped, paused, started something else or turned
	// auto-read off while we waited.
	if a.speech.State() != Idle || !a.autoRead || a.pages.Current() != from {
		return
	}

	if target == 1 {
		a.pages.GoTo(1)
	} else {
		a.pages.Next()
	}

	text, err := a.text(target)
	if err != nil {
		a.fail(err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"from": from,
		"to":   target,
	}).Debug("Auto-advancing")

	if err := a.speech.Speak(text, Origin{DocumentID: a.documentID, Page: target}); err != nil {
		a.fail(err)
	}
}

func (a *AutoAdvance) fail(err error) {
	logrus.WithError(err).Warn("Auto-advance stopped")
	if a.OnError != nil {
		a.OnError(err)
	}
}
