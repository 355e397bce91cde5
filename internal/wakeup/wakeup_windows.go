//go:build windows
// +build windows

// File: internal/wakeup/wakeup_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows has no poller backend in this module; wake pipes are unavailable
// and loop initialization reports the failure.

package wakeup

import "fmt"

// Pipe is a cross-thread wake mechanism.
type Pipe struct{}

// New always fails on Windows.
func New() (*Pipe, error) {
	return nil, fmt.Errorf("wakeup: not supported on windows")
}

// ReadFD returns the descriptor the owning loop should watch for reads.
func (p *Pipe) ReadFD() uintptr { return 0 }

// Wake kicks the owning loop.
func (p *Pipe) Wake() error { return nil }

// Drain consumes pending wake tokens.
func (p *Pipe) Drain() {}

// Close releases the pipe.
func (p *Pipe) Close() error { return nil }
