// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral reactor contract for watch registration and dispatch.

package reactor

import "os"

// Interest selects the direction of readiness a watch monitors.
type Interest uint32

const (
	// Read requests read-readiness notifications.
	Read Interest = 1 << iota
	// Write requests write-readiness notifications.
	Write
	// Persist keeps the watch armed after each delivery. Without it the
	// watch is deactivated before its callback runs, one-shot style.
	Persist
)

// Readiness is the native event mask delivered to a watch callback.
type Readiness uint32

const (
	// ReadyRead reports the descriptor became readable.
	ReadyRead Readiness = 1 << iota
	// ReadyWrite reports the descriptor became writable.
	ReadyWrite
	// ReadyTimeout reports a timer tick with no I/O.
	ReadyTimeout
	// ReadyClosed reports an abrupt peer close. Only legacy backends emit
	// this as a distinct bit; the epoll implementation never sets it.
	ReadyClosed
)

// Callback is invoked synchronously on the dispatching thread when a watched
// descriptor becomes ready.
type Callback func(fd uintptr, r Readiness)

// Watch is one registration of interest on one descriptor. A new watch is
// inactive; Start and Stop may alternate any number of times. Free releases
// the registration and is terminal.
type Watch interface {
	// Start activates the watch. Re-starting an active watch is harmless.
	Start() error

	// Stop deactivates the watch. Stopping an inactive watch is a no-op.
	Stop() error

	// Free releases the registration. The watch must not be used afterwards.
	Free()
}

// Reactor is an OS-level readiness-polling instance. One reactor serves one
// worker thread; registration calls are not safe for concurrent use with the
// same instance unless the implementation says otherwise.
type Reactor interface {
	// NewWatch creates an inactive watch for exactly one direction of
	// interest (Read or Write, optionally combined with Persist).
	NewWatch(fd uintptr, interest Interest, cb Callback) (Watch, error)

	// NewSignalWatch creates an inactive watch on an OS signal. The callback
	// runs on the dispatching thread.
	NewSignalWatch(sig os.Signal, fn func()) (Watch, error)

	// Post schedules fn to run on the dispatching thread. Safe to call from
	// any goroutine; this is the cross-thread wake path.
	Post(fn func()) error

	// Dispatch blocks, delivering readiness callbacks, until Break or Close.
	Dispatch() error

	// Break requests a running Dispatch to return at the next opportunity.
	Break() error

	// Close destroys the instance. All watches must be freed beforehand.
	Close() error
}
