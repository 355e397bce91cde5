//go:build linux
// +build linux

// File: reactor/watch_linux.go
// Author: momentics <momentics@gmail.com>
//
// Watch lifecycle for the epoll reactor.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-evbridge/api"
)

// epollWatch is one direction of interest on one descriptor.
type epollWatch struct {
	r       *epollReactor
	fd      uintptr
	dir     Interest
	persist bool
	cb      Callback
	active  bool
	freed   bool
}

func (w *epollWatch) Start() error {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	if w.freed {
		return api.ErrWatchFreed
	}
	if w.active {
		return nil
	}
	w.active = true
	if err := w.r.rearm(w.fd, w.r.fds[w.fd]); err != nil {
		w.active = false
		return fmt.Errorf("start watch: %w", err)
	}
	return nil
}

func (w *epollWatch) Stop() error {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	if w.freed {
		return api.ErrWatchFreed
	}
	if !w.active {
		return nil
	}
	w.active = false
	if err := w.r.rearm(w.fd, w.r.fds[w.fd]); err != nil {
		return fmt.Errorf("stop watch: %w", err)
	}
	return nil
}

func (w *epollWatch) Free() {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	if w.freed {
		return
	}
	w.freed = true
	w.active = false
	if s := w.r.fds[w.fd]; s != nil {
		_ = w.r.rearm(w.fd, s)
		if s.read == w {
			s.read = nil
		}
		if s.write == w {
			s.write = nil
		}
		if s.read == nil && s.write == nil {
			delete(w.r.fds, w.fd)
		}
	}
}
