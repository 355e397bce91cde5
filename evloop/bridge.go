// File: evloop/bridge.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bridge construction, per-thread state, and watch lifecycle: loop init,
// connection accept/destroy, loop teardown.

package evloop

import (
	"fmt"
	"os"
	"sync"

	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/control"
	"github.com/momentics/hioload-evbridge/internal/wakeup"
	"github.com/momentics/hioload-evbridge/reactor"
)

// perThread is one worker thread's reactor binding.
type perThread struct {
	loop      loopRef
	wake      *wakeup.Pipe
	wakeWatch reactor.Watch
	sigWatch  reactor.Watch
	listeners []*watchHandle
}

// Bridge binds the server core's watch lifecycle onto per-thread reactors.
// See the package documentation for the ownership rules.
type Bridge struct {
	opts     Options
	metrics  *control.MetricsRegistry
	onSignal func(tsi int)
	sigOn    bool

	mu    sync.Mutex
	pts   []perThread
	conns map[api.Conn]*watchPair
}

// New builds a Bridge. A nil Options.Service with the adapter enabled is a
// caller bug and panics.
func New(opts Options) *Bridge {
	if opts.Threads <= 0 {
		opts.Threads = 1
	}
	if opts.NewReactor == nil {
		opts.NewReactor = reactor.NewReactor
	}
	if opts.Signal == nil {
		opts.Signal = os.Interrupt
	}
	if opts.ShutdownPhase == nil {
		opts.ShutdownPhase = func() bool { return false }
	}
	if opts.Metrics == nil {
		opts.Metrics = control.NewMetricsRegistry()
	}
	if opts.Enabled && opts.Service == nil {
		panic("evloop: Options.Service is required")
	}
	b := &Bridge{
		opts:    opts,
		metrics: opts.Metrics,
		sigOn:   opts.SignalWatch,
		pts:     make([]perThread, opts.Threads),
		conns:   make(map[api.Conn]*watchPair),
	}
	b.onSignal = opts.OnSignal
	if b.onSignal == nil {
		b.onSignal = b.defaultSignal
	}
	return b
}

// Enabled reports whether the adapter is active.
func (b *Bridge) Enabled() bool { return b.opts.Enabled }

// Metrics returns the bridge's counter registry.
func (b *Bridge) Metrics() *control.MetricsRegistry { return b.metrics }

// SigintConfig enables or disables the interrupt-signal watch and overrides
// its callback; a nil cb restores the default. Must be called before
// InitLoop to take effect for that loop.
func (b *Bridge) SigintConfig(enable bool, cb func(tsi int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sigOn = enable
	if cb != nil {
		b.onSignal = cb
	} else {
		b.onSignal = b.defaultSignal
	}
}

// defaultSignal requests the thread's dispatch call to return. Foreign loops
// are left running; cancellation belongs to their owner.
func (b *Bridge) defaultSignal(tsi int) {
	b.mu.Lock()
	var loop loopRef
	if tsi >= 0 && tsi < len(b.pts) {
		loop = b.pts[tsi].loop
	}
	b.mu.Unlock()
	if loop != nil && !loop.Foreign() {
		_ = loop.Reactor().Break()
	}
}

// InitLoop binds worker thread tsi to a reactor instance. With external nil
// a new owned instance is created; otherwise external is adopted as foreign.
// The wake pipe is always created and watched; failure of the reactor, the
// pipe, or either registration is fatal to initialization and leaves the
// thread unbound.
func (b *Bridge) InitLoop(tsi int, external reactor.Reactor) error {
	if !b.opts.Enabled {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if tsi < 0 || tsi >= len(b.pts) {
		return fmt.Errorf("evloop: init loop %d: %w", tsi, api.ErrBadThreadIndex)
	}
	pt := &b.pts[tsi]
	if pt.loop != nil {
		return fmt.Errorf("evloop: init loop %d: %w", tsi, api.ErrLoopActive)
	}

	var loop loopRef
	if external != nil {
		loop = borrowedLoop{external}
	} else {
		r, err := b.opts.NewReactor()
		if err != nil {
			return fmt.Errorf("evloop: init loop %d: %w", tsi, err)
		}
		loop = ownedLoop{r}
	}

	pipe, err := wakeup.New()
	if err != nil {
		_ = loop.Release()
		return fmt.Errorf("evloop: init loop %d: %w", tsi, err)
	}
	wakeWatch, err := loop.Reactor().NewWatch(pipe.ReadFD(),
		reactor.Read|reactor.Persist,
		func(uintptr, reactor.Readiness) { pipe.Drain() })
	if err == nil {
		err = wakeWatch.Start()
	}
	if err != nil {
		if wakeWatch != nil {
			wakeWatch.Free()
		}
		_ = pipe.Close()
		_ = loop.Release()
		return fmt.Errorf("evloop: init loop %d: wake watch: %w", tsi, err)
	}

	pt.loop = loop
	pt.wake = pipe
	pt.wakeWatch = wakeWatch

	// Persistent read interest for every configured listening socket.
	for _, fd := range b.opts.Listeners {
		if err := b.registerListenerLocked(pt, fd); err != nil {
			b.destroyLoopLocked(tsi)
			return fmt.Errorf("evloop: init loop %d: listener fd %d: %w", tsi, fd, err)
		}
	}

	if b.sigOn {
		cb := b.onSignal
		sig, err := loop.Reactor().NewSignalWatch(b.opts.Signal, func() { cb(tsi) })
		if err == nil {
			err = sig.Start()
		}
		if err != nil {
			b.destroyLoopLocked(tsi)
			return fmt.Errorf("evloop: init loop %d: signal watch: %w", tsi, err)
		}
		pt.sigWatch = sig
	}
	return nil
}

// RegisterListener adds an active read watch for a listening socket that
// appeared after loop initialization.
func (b *Bridge) RegisterListener(tsi int, fd uintptr) error {
	if !b.opts.Enabled {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if tsi < 0 || tsi >= len(b.pts) {
		return fmt.Errorf("evloop: register listener: %w", api.ErrBadThreadIndex)
	}
	pt := &b.pts[tsi]
	if pt.loop == nil {
		return fmt.Errorf("evloop: register listener fd %d: loop %d not initialized", fd, tsi)
	}
	if err := b.registerListenerLocked(pt, fd); err != nil {
		return fmt.Errorf("evloop: register listener fd %d: %w", fd, err)
	}
	return nil
}

// registerListenerLocked creates and immediately activates a listener read
// watch. Caller must hold b.mu.
func (b *Bridge) registerListenerLocked(pt *perThread, fd uintptr) error {
	h := &watchHandle{}
	tok, err := pt.loop.Reactor().NewWatch(fd, reactor.Read|reactor.Persist,
		b.readinessCallback(h))
	if err != nil {
		return err
	}
	h.token = tok
	if err := tok.Start(); err != nil {
		h.free()
		return err
	}
	pt.listeners = append(pt.listeners, h)
	b.metrics.Add(MetricListenerWatches, 1)
	return nil
}

// AcceptConnection creates the connection's read and write watches, both
// inactive; activation goes through SetWatch. Registration failures at
// accept time are absorbed: the affected direction simply never activates.
func (b *Bridge) AcceptConnection(conn api.Conn, desc api.Desc) {
	if !b.opts.Enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	tsi := conn.ThreadIndex()
	if tsi < 0 || tsi >= len(b.pts) || b.pts[tsi].loop == nil {
		return
	}
	if _, dup := b.conns[conn]; dup {
		return
	}
	r := b.pts[tsi].loop.Reactor()
	fd := desc.FD()
	pair := &watchPair{}
	if tok, err := r.NewWatch(fd, reactor.Read|reactor.Persist,
		b.readinessCallback(&pair.read)); err == nil {
		pair.read.token = tok
	}
	if tok, err := r.NewWatch(fd, reactor.Write|reactor.Persist,
		b.readinessCallback(&pair.write)); err == nil {
		pair.write.token = tok
	}
	b.conns[conn] = pair
	b.metrics.Add(MetricWatchPairsCreated, 1)
}

// DestroyConnection frees the connection's watch pair. Idempotent; a
// connection without watches is a no-op.
func (b *Bridge) DestroyConnection(conn api.Conn) {
	if !b.opts.Enabled {
		return
	}
	b.mu.Lock()
	pair := b.conns[conn]
	delete(b.conns, conn)
	b.mu.Unlock()
	if pair == nil {
		return
	}
	pair.free()
	b.metrics.Add(MetricWatchPairsFreed, 1)
}

// DestroyLoop tears down thread tsi's binding. Remaining connection pairs,
// listener watches, the signal watch, and the wake pipe are all released
// strictly before an owned reactor instance is destroyed; foreign instances
// are never destroyed. No-op for disabled adapters and uninitialized loops.
func (b *Bridge) DestroyLoop(tsi int) {
	if !b.opts.Enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if tsi < 0 || tsi >= len(b.pts) {
		return
	}
	b.destroyLoopLocked(tsi)
}

func (b *Bridge) destroyLoopLocked(tsi int) {
	pt := &b.pts[tsi]
	if pt.loop == nil {
		return
	}
	for conn, pair := range b.conns {
		if conn.ThreadIndex() != tsi {
			continue
		}
		delete(b.conns, conn)
		pair.free()
		b.metrics.Add(MetricWatchPairsFreed, 1)
	}
	for _, h := range pt.listeners {
		h.free()
	}
	pt.listeners = nil
	if pt.sigWatch != nil {
		pt.sigWatch.Free()
		pt.sigWatch = nil
	}
	if pt.wakeWatch != nil {
		pt.wakeWatch.Free()
		pt.wakeWatch = nil
	}
	if pt.wake != nil {
		_ = pt.wake.Close()
		pt.wake = nil
	}
	_ = pt.loop.Release()
	pt.loop = nil
}
