//go:build linux
// +build linux

// File: internal/wakeup/wakeup_linux.go
// Author: momentics <momentics@gmail.com>
//
// eventfd-backed wake pipe. Read and write ends are the same descriptor.

package wakeup

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Pipe is a cross-thread wake mechanism.
type Pipe struct {
	fd int
}

// New creates the wake eventfd.
func New() (*Pipe, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("wakeup: eventfd: %w", err)
	}
	return &Pipe{fd: fd}, nil
}

// ReadFD returns the descriptor the owning loop should watch for reads.
func (p *Pipe) ReadFD() uintptr { return uintptr(p.fd) }

// Wake kicks the owning loop. Safe from any goroutine; a saturated counter
// means a wake is already pending and is not an error.
func (p *Pipe) Wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(p.fd, buf[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("wakeup: write: %w", err)
	}
	return nil
}

// Drain consumes pending wake tokens. Called on the loop thread.
func (p *Pipe) Drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.fd, buf[:]); err != nil {
			return
		}
	}
}

// Close releases the eventfd.
func (p *Pipe) Close() error {
	return unix.Close(p.fd)
}
