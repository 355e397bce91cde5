// File: evloop/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package evloop

import (
	"os"

	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/control"
	"github.com/momentics/hioload-evbridge/reactor"
)

// Counter names recorded in the metrics registry.
const (
	MetricWatchPairsCreated = "watch_pairs_created"
	MetricWatchPairsFreed   = "watch_pairs_freed"
	MetricListenerWatches   = "listener_watches"
	MetricDispatchCalls     = "dispatch_calls"
)

// Options configures a Bridge.
type Options struct {
	// Enabled gates the whole adapter. When false, every bridge operation
	// is a no-op.
	Enabled bool

	// Threads is the number of worker threads; each gets its own reactor
	// binding. Values below one are treated as one.
	Threads int

	// Service is the server core's servicing entry point. Required while
	// the adapter is enabled.
	Service api.ServiceFunc

	// NewReactor builds an owned reactor instance for a thread when
	// InitLoop is not handed a foreign one. Defaults to reactor.NewReactor.
	NewReactor func() (reactor.Reactor, error)

	// Listeners are the descriptors of the currently-configured listening
	// sockets. InitLoop registers a persistent read watch for each; sockets
	// appearing later go through RegisterListener.
	Listeners []uintptr

	// SignalWatch controls registration of the interrupt-signal watch at
	// loop initialization. On by default.
	SignalWatch bool

	// Signal is the interrupt signal to watch. Defaults to os.Interrupt.
	Signal os.Signal

	// OnSignal is invoked on the loop thread when the watched signal fires.
	// The default requests the thread's dispatch to return, unless the loop
	// is foreign.
	OnSignal func(tsi int)

	// ShutdownPhase reports whether the owning server context has entered
	// teardown. It is read, never written, by the bridge to short-circuit
	// watch operations racing with shutdown. Defaults to never.
	ShutdownPhase func() bool

	// Metrics receives watch-lifecycle counters. A private registry is
	// created when nil.
	Metrics *control.MetricsRegistry
}

// DefaultOptions returns the adapter defaults: enabled, one thread,
// interrupt-signal watch on.
func DefaultOptions() Options {
	return Options{
		Enabled:     true,
		Threads:     1,
		SignalWatch: true,
		Signal:      os.Interrupt,
	}
}

// WithConfig overlays the file-configurable knobs from cfg.
func (o Options) WithConfig(cfg control.Config) Options {
	o.Enabled = cfg.Enabled
	o.Threads = cfg.Threads
	o.SignalWatch = cfg.SignalWatch
	return o
}
