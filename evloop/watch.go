// File: evloop/watch.go
// Author: momentics <momentics@gmail.com>
//
// Watch handles and the per-connection watch pair.

package evloop

import "github.com/momentics/hioload-evbridge/reactor"

// DirSet selects connection watch directions for SetWatch.
type DirSet uint8

const (
	// DirRead selects the read-direction watch.
	DirRead DirSet = 1 << iota
	// DirWrite selects the write-direction watch.
	DirWrite
)

// watchHandle records one direction of registered interest on a descriptor.
// A nil token means unregistered; free releases the registration exactly
// once and nulls the token.
type watchHandle struct {
	token reactor.Watch
}

func (h *watchHandle) start() {
	if h.token != nil {
		_ = h.token.Start()
	}
}

func (h *watchHandle) stop() {
	if h.token != nil {
		_ = h.token.Stop()
	}
}

func (h *watchHandle) free() {
	if h.token != nil {
		h.token.Free()
		h.token = nil
	}
}

// watchPair is the fixed read/write watch couple every live connection owns.
// Both handles share one descriptor and one reactor binding; they are
// created together at accept and freed together at teardown.
type watchPair struct {
	read  watchHandle
	write watchHandle
}

func (p *watchPair) free() {
	p.read.free()
	p.write.free()
}
