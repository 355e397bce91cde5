// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides an in-memory reactor for tests. Watches are recorded
// instead of registered with the OS, and readiness events are injected
// synchronously. The legacy abrupt-close readiness bit is supported so the
// old-backend translation path stays testable.
package fake

import (
	"os"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/reactor"
)

// Reactor is a test double for reactor.Reactor.
type Reactor struct {
	mu       sync.Mutex
	watches  []*Watch
	signals  []*SignalWatch
	posted   *queue.Queue
	wakeCh   chan struct{}
	breakReq bool
	closed   bool

	// NewWatchErr, when set, forces NewWatch to fail.
	NewWatchErr error

	// CloseCalls counts Close invocations; the foreign-loop property tests
	// assert it stays zero.
	CloseCalls int
	// BreakCalls counts Break invocations.
	BreakCalls int
}

// NewReactor creates an empty fake reactor.
func NewReactor() *Reactor {
	return &Reactor{
		posted: queue.New(),
		wakeCh: make(chan struct{}, 1),
	}
}

func (r *Reactor) NewWatch(fd uintptr, interest reactor.Interest, cb reactor.Callback) (reactor.Watch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, api.ErrReactorClosed
	}
	if r.NewWatchErr != nil {
		return nil, r.NewWatchErr
	}
	w := &Watch{r: r, FD: fd, Interest: interest, cb: cb}
	r.watches = append(r.watches, w)
	return w, nil
}

func (r *Reactor) NewSignalWatch(sig os.Signal, fn func()) (reactor.Watch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, api.ErrReactorClosed
	}
	sw := &SignalWatch{r: r, Sig: sig, fn: fn}
	r.signals = append(r.signals, sw)
	return sw, nil
}

func (r *Reactor) Post(fn func()) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return api.ErrReactorClosed
	}
	r.posted.Add(fn)
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Reactor) Break() error {
	r.mu.Lock()
	r.breakReq = true
	r.BreakCalls++
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Reactor) Close() error {
	r.mu.Lock()
	r.closed = true
	r.CloseCalls++
	r.mu.Unlock()
	r.notify()
	return nil
}

// Dispatch drains posted callbacks and blocks until Break or Close.
func (r *Reactor) Dispatch() error {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil
		}
		if r.posted.Length() > 0 {
			fn := r.posted.Remove().(func())
			r.mu.Unlock()
			fn()
			continue
		}
		if r.breakReq {
			r.breakReq = false
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()
		<-r.wakeCh
	}
}

func (r *Reactor) notify() {
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

// InjectReadiness synchronously delivers a native event mask to the active
// watches of fd. Read and write bits go to the watch of the matching
// direction; timeout and abrupt-close masks go to every active watch on fd.
func (r *Reactor) InjectReadiness(fd uintptr, mask reactor.Readiness) {
	var targets []reactor.Callback
	broadcast := mask&(reactor.ReadyTimeout|reactor.ReadyClosed) != 0

	r.mu.Lock()
	for _, w := range r.watches {
		if w.FD != fd || !w.active || w.freed {
			continue
		}
		match := broadcast ||
			(mask&reactor.ReadyRead != 0 && w.Interest&reactor.Read != 0) ||
			(mask&reactor.ReadyWrite != 0 && w.Interest&reactor.Write != 0)
		if !match {
			continue
		}
		if w.Interest&reactor.Persist == 0 {
			w.active = false
		}
		targets = append(targets, w.cb)
	}
	r.mu.Unlock()

	for _, cb := range targets {
		cb(fd, mask)
	}
}

// Watches returns every watch created for fd, in creation order.
func (r *Reactor) Watches(fd uintptr) []*Watch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Watch
	for _, w := range r.watches {
		if w.FD == fd {
			out = append(out, w)
		}
	}
	return out
}

// ActiveCount returns the number of started, unfreed watches.
func (r *Reactor) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, w := range r.watches {
		if w.active && !w.freed {
			n++
		}
	}
	return n
}

// AllFreed reports whether every created watch has been freed.
func (r *Reactor) AllFreed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.watches {
		if !w.freed {
			return false
		}
	}
	for _, sw := range r.signals {
		if !sw.freed {
			return false
		}
	}
	return true
}

// WatchCount returns the total number of watches ever created.
func (r *Reactor) WatchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// SignalWatches returns the created signal watches.
func (r *Reactor) SignalWatches() []*SignalWatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*SignalWatch, len(r.signals))
	copy(out, r.signals)
	return out
}

// Closed reports whether Close has been called.
func (r *Reactor) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
