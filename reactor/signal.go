// File: reactor/signal.go
// Author: momentics <momentics@gmail.com>
//
// Signal watches relayed through os/signal onto the dispatch thread.

package reactor

import (
	"os"
	"os/signal"
	"sync"

	"github.com/momentics/hioload-evbridge/api"
)

// poster is the subset of Reactor a signal watch needs to hand its callback
// to the dispatch thread.
type poster interface {
	Post(fn func()) error
}

// signalWatch adapts os/signal delivery to the Watch contract. A relay
// goroutine forwards each signal through Post, so the callback always runs
// on the dispatching thread.
type signalWatch struct {
	p     poster
	sig   os.Signal
	fn    func()
	mu    sync.Mutex
	ch    chan os.Signal
	done  chan struct{}
	freed bool
}

func newSignalWatch(p poster, sig os.Signal, fn func()) *signalWatch {
	return &signalWatch{p: p, sig: sig, fn: fn}
}

func (w *signalWatch) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.freed {
		return api.ErrWatchFreed
	}
	if w.ch != nil {
		return nil
	}
	w.ch = make(chan os.Signal, 1)
	w.done = make(chan struct{})
	signal.Notify(w.ch, w.sig)
	go relaySignals(w.p, w.fn, w.ch, w.done)
	return nil
}

func relaySignals(p poster, fn func(), ch chan os.Signal, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ch:
			_ = p.Post(fn)
		}
	}
}

func (w *signalWatch) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.freed {
		return api.ErrWatchFreed
	}
	w.stopLocked()
	return nil
}

func (w *signalWatch) stopLocked() {
	if w.ch == nil {
		return
	}
	signal.Stop(w.ch)
	close(w.done)
	w.ch, w.done = nil, nil
}

func (w *signalWatch) Free() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.freed {
		return
	}
	w.stopLocked()
	w.freed = true
}
