// File: evloop/controller.go
// Author: momentics <momentics@gmail.com>
//
// Watch activation control and the per-thread dispatch entry point.

package evloop

import (
	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/internal/wakeup"
)

// SetWatch starts or stops the connection's watches for the requested
// directions. dirs must be a non-empty subset of {DirRead, DirWrite}; an
// empty set is a caller bug and panics. The call is a no-op while the
// adapter is disabled, the thread's loop is absent, or the server context
// reports it is being destroyed.
//
// Re-starting an active watch and stopping an inactive one are harmless.
func (b *Bridge) SetWatch(conn api.Conn, dirs DirSet, start bool) {
	if !b.opts.Enabled {
		return
	}
	if dirs&(DirRead|DirWrite) == 0 {
		panic("evloop: SetWatch called with empty direction set")
	}
	if b.opts.ShutdownPhase() {
		return
	}
	tsi := conn.ThreadIndex()
	b.mu.Lock()
	var pair *watchPair
	if tsi >= 0 && tsi < len(b.pts) && b.pts[tsi].loop != nil {
		pair = b.conns[conn]
	}
	b.mu.Unlock()
	if pair == nil {
		return
	}
	if start {
		if dirs&DirWrite != 0 {
			pair.write.start()
		}
		if dirs&DirRead != 0 {
			pair.read.start()
		}
	} else {
		if dirs&DirWrite != 0 {
			pair.write.stop()
		}
		if dirs&DirRead != 0 {
			pair.read.stop()
		}
	}
}

// RunDispatch runs one blocking dispatch call on thread tsi's reactor. The
// call returns when the reactor leaves its dispatch loop; embedding servers
// either call it once per iteration of their own run loop or exactly once
// when the reactor's dispatch is itself the long-running loop. Absent loops
// and a disabled adapter return immediately.
func (b *Bridge) RunDispatch(tsi int) {
	if !b.opts.Enabled {
		return
	}
	b.mu.Lock()
	var loop loopRef
	if tsi >= 0 && tsi < len(b.pts) {
		loop = b.pts[tsi].loop
	}
	b.mu.Unlock()
	if loop == nil {
		return
	}
	b.metrics.Add(MetricDispatchCalls, 1)
	_ = loop.Reactor().Dispatch()
}

// Wake kicks thread tsi's dispatch loop. Safe to call from any goroutine.
func (b *Bridge) Wake(tsi int) {
	if !b.opts.Enabled {
		return
	}
	b.mu.Lock()
	var pipe *wakeup.Pipe
	if tsi >= 0 && tsi < len(b.pts) {
		pipe = b.pts[tsi].wake
	}
	b.mu.Unlock()
	if pipe != nil {
		_ = pipe.Wake()
	}
}
