// File: api/errors.go
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the event-loop adapter.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrNotSupported   = fmt.Errorf("operation not supported on this platform")
	ErrReactorClosed  = fmt.Errorf("reactor is closed")
	ErrWatchExists    = fmt.Errorf("watch already registered for this descriptor direction")
	ErrWatchFreed     = fmt.Errorf("watch has been freed")
	ErrLoopActive     = fmt.Errorf("event loop already initialized for this thread")
	ErrBadThreadIndex = fmt.Errorf("thread index out of range")
)
