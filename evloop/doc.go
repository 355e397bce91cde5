// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package evloop binds a connection-oriented server's generic readiness
// abstraction onto concrete reactor instances, one per worker thread.
//
// The Bridge owns the lifecycle of per-descriptor watches: it registers
// persistent read watches for listening sockets at loop initialization,
// creates an inactive read/write watch pair when a connection is accepted,
// toggles watch activation on the server's flow-control requests, and tears
// everything down at connection close or loop shutdown. Reactor instances
// created by the bridge are destroyed with their loop; instances supplied by
// the embedding caller are adopted as foreign and never destroyed here.
//
// The bridge performs no I/O itself. Readiness events are translated into
// generic poll-event records and forwarded to the server's servicing entry
// point.
package evloop
