// File: api/poll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generic poll-event representation exchanged with the server core.

package api

// PollFlags is a bitmask of poll-style readiness flags.
type PollFlags uint32

const (
	// PollIn indicates the descriptor is readable.
	PollIn PollFlags = 1 << iota
	// PollOut indicates the descriptor is writable.
	PollOut
)

// PollEvent mirrors a classic pollfd record: the descriptor, the events that
// were requested, and the events that are actually ready. The event-loop
// adapter produces these; the server's servicing routine consumes them.
type PollEvent struct {
	FD      uintptr
	Events  PollFlags
	REvents PollFlags
}

// ServiceFunc is the server core's generic I/O servicing entry point. The
// adapter forwards translated readiness events into it; the function performs
// the actual read/write and protocol processing.
type ServiceFunc func(ev PollEvent)
