package gui

import "testing"

func TestPumpPostAfterClose(t *testing.T) {
	p := NewPump()
	p.Close()

	// A late subscriber firing during shutdown must be dropped, not panic
	p.Post(func() {
		t.Error("work posted after close must not run")
	})
}

func TestPumpCloseTwice(t *testing.T) {
	p := NewPump()
	p.Close()
	p.Close()
}

func TestPumpBuffersBeforeStart(t *testing.T) {
	p := NewPump()
	p.Post(func() {})
	p.Close()
}
