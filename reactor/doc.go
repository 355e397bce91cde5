// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness-polling abstraction driven by the
// event-loop adapter: per-descriptor watches with explicit start/stop/free
// lifecycle, signal watches, cross-thread callback posting, and a blocking
// dispatch call. A Linux epoll implementation ships with the package;
// embedding callers may supply their own Reactor instead.
package reactor
