package gui

import (
	"sync"

	"fyne.io/fyne/v2"
)

// Pump is the bridge between background extraction goroutines and the UI.
// Bus subscribers post closures here; a single goroutine drains the queue
// and hands each closure to the toolkit's main thread. The pipeline packages
// never see a fyne import.
type Pump struct {
	mu     sync.Mutex
	ch     chan func()
	closed bool
}

// NewPump creates a pump with a generous buffer so emitters never block on
// a busy UI.
func NewPump() *Pump {
	return &Pump{ch: make(chan func(), 256)}
}

// Start begins draining posted work onto the UI thread.
func (p *Pump) Start() {
	go func() {
		for f := range p.ch {
			fyne.Do(f)
		}
	}()
}

// Post enqueues work for the UI thread. Posting to a closed pump is a no-op:
// during shutdown a subscriber can still fire after the window is gone, and
// its update has nowhere useful to go.
func (p *Pump) Post(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.ch <- f
}

// Close stops the pump once pending work has drained.
func (p *Pump) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.ch)
}
