// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// controller_test.go — SetWatch semantics, dispatch entry point, wake path.
package evloop_test

import (
	"testing"
	"time"

	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/evloop"
	"github.com/momentics/hioload-evbridge/fake"
	"github.com/momentics/hioload-evbridge/reactor"
)

func acceptedConn(t *testing.T, b *evloop.Bridge, fr *fake.Reactor, fd uintptr) (*testConn, []*fake.Watch) {
	t.Helper()
	conn := &testConn{tsi: 0, desc: api.SocketDesc(fd)}
	b.AcceptConnection(conn, conn.Desc())
	ws := fr.Watches(fd)
	if len(ws) != 2 {
		t.Fatalf("expected watch pair for fd %d, got %d watches", fd, len(ws))
	}
	return conn, ws
}

func TestSetWatchActivation(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })
	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}
	conn, ws := acceptedConn(t, b, fr, 42)

	// Watches start inactive.
	if ws[0].Active() || ws[1].Active() {
		t.Fatal("accept must create inactive watches")
	}

	b.SetWatch(conn, evloop.DirRead|evloop.DirWrite, true)
	if !ws[0].Active() || !ws[1].Active() {
		t.Fatal("both directions should be active after start")
	}

	// Idempotent: re-starting an active watch is harmless.
	b.SetWatch(conn, evloop.DirRead, true)
	if !ws[0].Active() {
		t.Error("read watch lost activation on repeated start")
	}

	b.SetWatch(conn, evloop.DirWrite, false)
	read, write := pairByDirection(ws)
	if !read.Active() || write.Active() {
		t.Error("stopping write must leave read active")
	}

	// Stopping an already-inactive watch is a no-op, not an error.
	b.SetWatch(conn, evloop.DirWrite, false)
	if read.Active() == false {
		t.Error("read watch disturbed by redundant write stop")
	}

	b.DestroyConnection(conn)
}

func pairByDirection(ws []*fake.Watch) (read, write *fake.Watch) {
	for _, w := range ws {
		if w.Interest&reactor.Read != 0 {
			read = w
		} else {
			write = w
		}
	}
	return read, write
}

func TestSetWatchEmptyDirectionSetPanics(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })
	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}
	conn, _ := acceptedConn(t, b, fr, 42)

	defer func() {
		if recover() == nil {
			t.Error("SetWatch with an empty direction set must panic")
		}
	}()
	b.SetWatch(conn, 0, true)
}

func TestSetWatchNoOpConditions(t *testing.T) {
	// Disabled adapter: even an empty direction set is ignored before the
	// contract check, matching the disabled-means-inert rule.
	bd, _ := newBridge(fake.NewReactor(), func(o *evloop.Options) { o.Enabled = false })
	bd.SetWatch(&testConn{tsi: 0}, evloop.DirRead, true)

	// Absent loop.
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })
	b.SetWatch(&testConn{tsi: 0, desc: api.SocketDesc(1)}, evloop.DirRead, true)

	// Shutdown phase short-circuits requests racing with teardown.
	var down bool
	fr2 := fake.NewReactor()
	b2, _ := newBridge(fr2, func(o *evloop.Options) {
		o.SignalWatch = false
		o.ShutdownPhase = func() bool { return down }
	})
	if err := b2.InitLoop(0, fr2); err != nil {
		t.Fatal(err)
	}
	conn, ws := acceptedConn(t, b2, fr2, 42)
	down = true
	b2.SetWatch(conn, evloop.DirRead|evloop.DirWrite, true)
	if ws[0].Active() || ws[1].Active() {
		t.Error("SetWatch must be inert once the context is being destroyed")
	}
}

func TestRunDispatch(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })

	// Absent loop: immediate no-op.
	b.RunDispatch(0)
	b.RunDispatch(7)
	if got := b.Metrics().Get(evloop.MetricDispatchCalls); got != 0 {
		t.Fatalf("expected no dispatch on absent loops, got %d", got)
	}

	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}

	// A pending break request makes the blocking dispatch return.
	if err := fr.Break(); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		b.RunDispatch(0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunDispatch did not return after break")
	}
	if got := b.Metrics().Get(evloop.MetricDispatchCalls); got != 1 {
		t.Errorf("expected 1 dispatch call, got %d", got)
	}
	b.DestroyLoop(0)
}

func TestWake(t *testing.T) {
	fr := fake.NewReactor()
	b, _ := newBridge(fr, func(o *evloop.Options) { o.SignalWatch = false })

	// No loop yet: silently ignored.
	b.Wake(0)

	if err := b.InitLoop(0, fr); err != nil {
		t.Fatal(err)
	}
	b.Wake(0)
	b.Wake(0) // coalesced wakes are fine
	b.DestroyLoop(0)
}
