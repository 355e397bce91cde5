// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package wakeup provides the per-thread cross-thread notification pipe the
// event-loop adapter creates at loop initialization. On Linux it is a single
// eventfd; elsewhere a non-blocking pipe pair. The read end is watched by
// the owning reactor, Wake may be called from any goroutine.
package wakeup
