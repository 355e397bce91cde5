// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"os"

	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/reactor"
)

// Watch records one fake descriptor registration.
type Watch struct {
	r        *Reactor
	FD       uintptr
	Interest reactor.Interest
	cb       reactor.Callback

	active bool
	freed  bool

	StartCalls int
	StopCalls  int
}

func (w *Watch) Start() error {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	if w.freed {
		return api.ErrWatchFreed
	}
	w.StartCalls++
	w.active = true
	return nil
}

func (w *Watch) Stop() error {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	if w.freed {
		return api.ErrWatchFreed
	}
	w.StopCalls++
	w.active = false
	return nil
}

func (w *Watch) Free() {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	w.active = false
	w.freed = true
}

// Active reports whether the watch is started and not freed.
func (w *Watch) Active() bool {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	return w.active && !w.freed
}

// Freed reports whether the watch has been released.
func (w *Watch) Freed() bool {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	return w.freed
}

// SignalWatch records one fake signal registration.
type SignalWatch struct {
	r   *Reactor
	Sig os.Signal
	fn  func()

	active bool
	freed  bool
}

func (sw *SignalWatch) Start() error {
	sw.r.mu.Lock()
	defer sw.r.mu.Unlock()
	if sw.freed {
		return api.ErrWatchFreed
	}
	sw.active = true
	return nil
}

func (sw *SignalWatch) Stop() error {
	sw.r.mu.Lock()
	defer sw.r.mu.Unlock()
	if sw.freed {
		return api.ErrWatchFreed
	}
	sw.active = false
	return nil
}

func (sw *SignalWatch) Free() {
	sw.r.mu.Lock()
	defer sw.r.mu.Unlock()
	sw.active = false
	sw.freed = true
}

// Active reports whether the signal watch is started and not freed.
func (sw *SignalWatch) Active() bool {
	sw.r.mu.Lock()
	defer sw.r.mu.Unlock()
	return sw.active && !sw.freed
}

// Freed reports whether the signal watch has been released.
func (sw *SignalWatch) Freed() bool {
	sw.r.mu.Lock()
	defer sw.r.mu.Unlock()
	return sw.freed
}

// Fire invokes the signal callback as if the OS delivered the signal. Only
// active watches fire.
func (sw *SignalWatch) Fire() {
	if sw.Active() {
		sw.fn()
	}
}
