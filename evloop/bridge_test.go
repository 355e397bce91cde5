// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// bridge_test.go — Watch lifecycle: loop init/teardown, ownership,
// accept/destroy pairing.
package evloop_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/evloop"
	"github.com/momentics/hioload-evbridge/fake"
	"github.com/momentics/hioload-evbridge/reactor"
)

type testConn struct {
	tsi  int
	desc api.Desc
}

func (c *testConn) ThreadIndex() int { return c.tsi }
func (c *testConn) Desc() api.Desc   { return c.desc }

type serviceRecorder struct {
	mu     sync.Mutex
	events []api.PollEvent
}

func (s *serviceRecorder) record(ev api.PollEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *serviceRecorder) take() []api.PollEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

// newBridge builds a bridge whose owned-reactor factory hands out fr.
func newBridge(fr *fake.Reactor, mut func(*evloop.Options)) (*evloop.Bridge, *serviceRecorder) {
	rec := &serviceRecorder{}
	opts := evloop.DefaultOptions()
	opts.Service = rec.record
	opts.NewReactor = func() (reactor.Reactor, error) { return fr, nil }
	if mut != nil {
		mut(&opts)
	}
	return evloop.New(opts), rec
}

func TestInitLoopOwnedInstanceDestroyed(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, nil)

	if err := b.InitLoop(0, nil); err != nil {
		t.Fatal(err)
	}
	b.DestroyLoop(0)

	if fr.CloseCalls != 1 {
		t.Errorf("owned loop: expected 1 Close call, got %d", fr.CloseCalls)
	}
	if !fr.AllFreed() {
		t.Error("owned loop: not all watches freed at teardown")
	}
}

func TestInitLoopForeignInstanceNotDestroyed(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fake.NewReactor(), nil)

	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}
	b.DestroyLoop(0)

	if fr.CloseCalls != 0 {
		t.Errorf("foreign loop: expected 0 Close calls, got %d", fr.CloseCalls)
	}
	if !fr.AllFreed() {
		t.Error("foreign loop: adapter watches must still be freed")
	}
}

func TestDestroyLoopBenignNoOps(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, nil)

	// Never initialized.
	b.DestroyLoop(0)
	// Out of range.
	b.DestroyLoop(99)
	b.DestroyLoop(-1)

	if fr.CloseCalls != 0 {
		t.Errorf("expected no Close calls, got %d", fr.CloseCalls)
	}

	// Disabled adapter.
	bd, _ := newBridge(fr, func(o *evloop.Options) { o.Enabled = false })
	if err := bd.InitLoop(0, nil); err != nil {
		t.Fatal(err)
	}
	bd.DestroyLoop(0)
	if fr.CloseCalls != 0 {
		t.Errorf("disabled adapter must not touch the reactor, got %d Close calls", fr.CloseCalls)
	}
}

func TestInitLoopErrors(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, nil)

	if err := b.InitLoop(5, nil); !errors.Is(err, api.ErrBadThreadIndex) {
		t.Errorf("out-of-range tsi: got %v", err)
	}
	if err := b.InitLoop(0, nil); err != nil {
		t.Fatal(err)
	}
	if err := b.InitLoop(0, nil); !errors.Is(err, api.ErrLoopActive) {
		t.Errorf("double init: got %v", err)
	}
	b.DestroyLoop(0)

	// Reactor factory failure is fatal to startup for that thread.
	boom := fmt.Errorf("boom")
	bf, _ := newBridge(nil, func(o *evloop.Options) {
		o.NewReactor = func() (reactor.Reactor, error) { return nil, boom }
	})
	if err := bf.InitLoop(0, nil); !errors.Is(err, boom) {
		t.Errorf("factory failure: got %v", err)
	}
}

func TestInitLoopWakeWatchFailureReleasesOwnedInstance(t *testing.T) {
	fr := fake.NewReactor()
	fr.NewWatchErr = fmt.Errorf("register refused")
	b, _ := newBridge(fr, nil)

	if err := b.InitLoop(0, nil); err == nil {
		t.Fatal("expected init failure")
	}
	if fr.CloseCalls != 1 {
		t.Errorf("failed init must release the owned instance, got %d Close calls", fr.CloseCalls)
	}

	// The thread stays unbound: dispatch is a no-op afterwards.
	b.RunDispatch(0)
	if got := b.Metrics().Get(evloop.MetricDispatchCalls); got != 0 {
		t.Errorf("expected 0 dispatch calls after failed init, got %d", got)
	}
}

func TestAcceptDestroyPairing(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })
	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}

	conns := make([]*testConn, 5)
	for i := range conns {
		conns[i] = &testConn{tsi: 0, desc: api.SocketDesc(uintptr(100 + i))}
		b.AcceptConnection(conns[i], conns[i].Desc())
	}
	if got := b.Metrics().Get(evloop.MetricWatchPairsCreated); got != 5 {
		t.Fatalf("expected 5 watch pairs, got %d", got)
	}

	// Destroy two explicitly, the rest via loop teardown.
	b.DestroyConnection(conns[0])
	b.DestroyConnection(conns[1])
	b.DestroyLoop(0)

	created := b.Metrics().Get(evloop.MetricWatchPairsCreated)
	freed := b.Metrics().Get(evloop.MetricWatchPairsFreed)
	if created != freed {
		t.Errorf("watch pair leak: created %d, freed %d", created, freed)
	}
	if !fr.AllFreed() {
		t.Error("reactor still holds unfreed watches")
	}

	// Destroying after loop teardown stays idempotent.
	b.DestroyConnection(conns[2])
	if got := b.Metrics().Get(evloop.MetricWatchPairsFreed); got != freed {
		t.Errorf("double free: counter moved from %d to %d", freed, got)
	}
}

func TestAcceptConnectionNoOps(t *testing.T) {
	fr := fake.NewReactor()
	conn := &testConn{tsi: 0, desc: api.SocketDesc(42)}

	// Disabled adapter.
	bd, _ := newBridge(fr, func(o *evloop.Options) { o.Enabled = false })
	bd.AcceptConnection(conn, conn.Desc())
	if fr.WatchCount() != 0 {
		t.Error("disabled adapter created watches")
	}

	// Loop not initialized.
	b, _ := newBridge(fr, nil)
	b.AcceptConnection(conn, conn.Desc())
	if fr.WatchCount() != 0 {
		t.Error("accept without a loop created watches")
	}
	b.DestroyConnection(conn) // no watches: a no-op, not an error
}

func TestAcceptFileDescriptorKind(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })
	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}

	conn := &testConn{tsi: 0, desc: api.FileDesc(77)}
	b.AcceptConnection(conn, conn.Desc())
	if got := len(fr.Watches(77)); got != 2 {
		t.Errorf("expected a watch pair on file fd 77, got %d watches", got)
	}
	b.DestroyConnection(conn)
	b.DestroyLoop(0)
}

func TestListenersRegisteredAtInit(t *testing.T) {
	fr := fake.NewReactor()
	b, rec := newBridge(fr, func(o *evloop.Options) {
		o.SignalWatch = false
		o.Listeners = []uintptr{7, 8}
	})
	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}

	for _, fd := range []uintptr{7, 8} {
		ws := fr.Watches(fd)
		if len(ws) != 1 || !ws[0].Active() {
			t.Fatalf("listener fd %d: expected one active watch", fd)
		}
	}

	// Listening sockets have persistent read interest from the start.
	fr.InjectReadiness(7, reactor.ReadyRead)
	evs := rec.take()
	if len(evs) != 1 || evs[0].FD != 7 || evs[0].REvents != api.PollIn {
		t.Errorf("listener readiness not forwarded: %+v", evs)
	}

	b.DestroyLoop(0)
	if !fr.AllFreed() {
		t.Error("listener watches leaked at loop teardown")
	}
}

func TestRegisterListenerAfterInit(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })

	if err := b.RegisterListener(0, 9); err == nil {
		t.Error("expected error registering listener before init")
	}
	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterListener(0, 9); err != nil {
		t.Fatal(err)
	}
	ws := fr.Watches(9)
	if len(ws) != 1 || !ws[0].Active() {
		t.Error("late listener watch missing or inactive")
	}
	b.DestroyLoop(0)
}
