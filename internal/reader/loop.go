// Package reader drives text-to-speech in step with document pagination,
// voice commands and screen reader announcements. All of its state is owned
// by a single event loop; work arriving from other goroutines is posted.
package reader

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Dispatcher runs fn on the event loop.
type Dispatcher interface {
	Post(fn func())
}

// Timer is a scheduled task that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn on the event loop after d.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
}

// Loop is a goroutine-backed event loop.
type Loop struct {
	queue chan func()
	quit  chan struct{}
	once  sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), 64),
		quit:  make(chan struct{}),
	}
}

// Post enqueues fn. Work posted after Close is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.quit:
	}
}

// Run executes posted work until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		}
	}
}

func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
}

// ClockScheduler fires timers from clock and posts them to a dispatcher.
type ClockScheduler struct {
	clock      clock.Clock
	dispatcher Dispatcher
}

func NewClockScheduler(c clock.Clock, d Dispatcher) *ClockScheduler {
	return &ClockScheduler{clock: c, dispatcher: d}
}

func (s *ClockScheduler) After(d time.Duration, fn func()) Timer {
	return s.clock.AfterFunc(d, func() {
		s.dispatcher.Post(fn)
	})
}
