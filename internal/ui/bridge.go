// Package ui is the terminal reading view built on bubbletea.
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// drainMsg asks the model to run work posted through the Bridge.
type drainMsg struct{}

// Bridge makes the bubbletea program the reader's event loop. Posted work is
// queued in order and run from Update.
type Bridge struct {
	mu        sync.Mutex
	queue     []func()
	program   *tea.Program
	scheduled bool
}

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to a running program.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	wake := len(b.queue) > 0 && !b.scheduled
	if wake {
		b.scheduled = true
	}
	b.mu.Unlock()

	if wake {
		go p.Send(drainMsg{})
	}
}

func (b *Bridge) Post(fn func()) {
	b.mu.Lock()
	b.queue = append(b.queue, fn)
	p := b.program
	wake := p != nil && !b.scheduled
	if wake {
		b.scheduled = true
	}
	b.mu.Unlock()

	// Send blocks until Update reads it, and Post may be called from Update.
	if wake {
		go p.Send(drainMsg{})
	}
}

// drain runs everything queued so far.
func (b *Bridge) drain() {
	b.mu.Lock()
	queue := b.queue
	b.queue = nil
	b.scheduled = false
	b.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
}
