//go:build !linux && !windows
// +build !linux,!windows

// File: internal/wakeup/wakeup_unix.go
// Author: momentics <momentics@gmail.com>
//
// Pipe-pair wake mechanism for non-Linux Unix platforms.

package wakeup

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pipe is a cross-thread wake mechanism.
type Pipe struct {
	r, w int
}

// New creates the wake pipe pair.
func New() (*Pipe, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, fmt.Errorf("wakeup: pipe: %w", err)
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, fmt.Errorf("wakeup: set nonblock: %w", err)
		}
	}
	return &Pipe{r: fds[0], w: fds[1]}, nil
}

// ReadFD returns the descriptor the owning loop should watch for reads.
func (p *Pipe) ReadFD() uintptr { return uintptr(p.r) }

// Wake kicks the owning loop. A full pipe means a wake is already pending
// and is not an error.
func (p *Pipe) Wake() error {
	buf := [1]byte{1}
	if _, err := unix.Write(p.w, buf[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("wakeup: write: %w", err)
	}
	return nil
}

// Drain consumes pending wake tokens. Called on the loop thread.
func (p *Pipe) Drain() {
	var buf [64]byte
	for {
		if _, err := unix.Read(p.r, buf[:]); err != nil {
			return
		}
	}
}

// Close releases both ends.
func (p *Pipe) Close() error {
	errR := unix.Close(p.r)
	if err := unix.Close(p.w); err != nil {
		return err
	}
	return errR
}
