//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation and factory.
//
// The read and write watches of one descriptor are merged onto a single
// epoll registration; toggling either watch re-arms the combined mask with
// EPOLL_CTL_ADD/MOD/DEL as needed. An eventfd wakes the dispatch loop for
// Break requests and posted callbacks.

package reactor

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evbridge/api"
)

// NewReactor constructs a new platform-specific Reactor for Linux.
func NewReactor() (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakefd: %w", err)
	}
	return &epollReactor{
		epfd:   epfd,
		wakefd: wakefd,
		fds:    make(map[uintptr]*fdSlots),
		posted: queue.New(),
	}, nil
}

// epollReactor is an epoll-based event reactor.
type epollReactor struct {
	epfd     int
	wakefd   int
	mu       sync.Mutex
	fds      map[uintptr]*fdSlots
	posted   *queue.Queue
	breakReq atomic.Bool
	closed   atomic.Bool
}

// fdSlots holds the at-most-two watches sharing one descriptor and the epoll
// event mask currently armed for it.
type fdSlots struct {
	read  *epollWatch
	write *epollWatch
	armed uint32
}

func (r *epollReactor) NewWatch(fd uintptr, interest Interest, cb Callback) (Watch, error) {
	if r.closed.Load() {
		return nil, api.ErrReactorClosed
	}
	dir := interest & (Read | Write)
	if dir != Read && dir != Write {
		return nil, fmt.Errorf("watch fd %d: interest must select exactly one of Read or Write", fd)
	}
	w := &epollWatch{
		r:       r,
		fd:      fd,
		dir:     dir,
		persist: interest&Persist != 0,
		cb:      cb,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.fds[fd]
	if s == nil {
		s = &fdSlots{}
		r.fds[fd] = s
	}
	if dir == Read {
		if s.read != nil {
			return nil, api.ErrWatchExists
		}
		s.read = w
	} else {
		if s.write != nil {
			return nil, api.ErrWatchExists
		}
		s.write = w
	}
	return w, nil
}

func (r *epollReactor) NewSignalWatch(sig os.Signal, fn func()) (Watch, error) {
	if r.closed.Load() {
		return nil, api.ErrReactorClosed
	}
	return newSignalWatch(r, sig, fn), nil
}

// rearm synchronizes the epoll registration of fd with the active watches.
// Caller must hold r.mu.
func (r *epollReactor) rearm(fd uintptr, s *fdSlots) error {
	var want uint32
	if s.read != nil && s.read.active {
		want |= unix.EPOLLIN
	}
	if s.write != nil && s.write.active {
		want |= unix.EPOLLOUT
	}
	if want == s.armed {
		return nil
	}
	var err error
	switch {
	case s.armed == 0:
		ev := unix.EpollEvent{Events: want, Fd: int32(fd)}
		err = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev)
	case want == 0:
		err = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	default:
		ev := unix.EpollEvent{Events: want, Fd: int32(fd)}
		err = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev)
	}
	if err != nil {
		return fmt.Errorf("epoll ctl fd %d: %w", fd, err)
	}
	s.armed = want
	return nil
}

// Dispatch blocks delivering readiness callbacks until Break or Close.
func (r *epollReactor) Dispatch() error {
	if r.closed.Load() {
		return api.ErrReactorClosed
	}
	var events [128]unix.EpollEvent
	for {
		if r.breakReq.Swap(false) {
			return nil
		}
		n, err := unix.EpollWait(r.epfd, events[:], -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if r.closed.Load() {
				return nil
			}
			return fmt.Errorf("epoll wait: %w", err)
		}
		for i := 0; i < n; i++ {
			fd := uintptr(events[i].Fd)
			if int(fd) == r.wakefd {
				r.drainWake()
				continue
			}
			r.deliver(fd, events[i].Events)
		}
	}
}

// deliver translates an epoll event mask and invokes the matching active
// watch callbacks outside the lock. Error and hangup conditions surface as
// read/write readiness so the servicing routine can observe EOF.
func (r *epollReactor) deliver(fd uintptr, events uint32) {
	var ready Readiness
	if events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		ready |= ReadyRead
	}
	if events&unix.EPOLLOUT != 0 {
		ready |= ReadyWrite
	}
	errish := events&(unix.EPOLLERR|unix.EPOLLHUP) != 0

	type delivery struct {
		cb Callback
		rd Readiness
	}
	var out [2]delivery
	nout := 0

	r.mu.Lock()
	s := r.fds[fd]
	if s != nil {
		if w := s.read; w != nil && w.active && (ready&ReadyRead != 0 || errish) {
			if !w.persist {
				w.active = false
			}
			out[nout] = delivery{w.cb, ready | ReadyRead}
			nout++
		}
		if w := s.write; w != nil && w.active && (ready&ReadyWrite != 0 || errish) {
			if !w.persist {
				w.active = false
			}
			out[nout] = delivery{w.cb, ready | ReadyWrite}
			nout++
		}
		if nout > 0 {
			_ = r.rearm(fd, s)
		}
	}
	r.mu.Unlock()

	for i := 0; i < nout; i++ {
		out[i].cb(fd, out[i].rd)
	}
}

// drainWake empties the eventfd counter and runs posted callbacks on the
// dispatch thread.
func (r *epollReactor) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.wakefd, buf[:]); err != nil {
			break
		}
	}
	for {
		r.mu.Lock()
		if r.posted.Length() == 0 {
			r.mu.Unlock()
			return
		}
		fn := r.posted.Remove().(func())
		r.mu.Unlock()
		fn()
	}
}

func (r *epollReactor) Post(fn func()) error {
	if r.closed.Load() {
		return api.ErrReactorClosed
	}
	r.mu.Lock()
	r.posted.Add(fn)
	r.mu.Unlock()
	return r.wake()
}

func (r *epollReactor) Break() error {
	if r.closed.Load() {
		return api.ErrReactorClosed
	}
	r.breakReq.Store(true)
	return r.wake()
}

func (r *epollReactor) wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(r.wakefd, buf[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

// Close releases the epoll instance. Callers must free all watches and let
// Dispatch return before closing.
func (r *epollReactor) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.breakReq.Store(true)
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(r.wakefd, buf[:])

	errWake := unix.Close(r.wakefd)
	if err := unix.Close(r.epfd); err != nil {
		return err
	}
	return errWake
}
