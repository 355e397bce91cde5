// File: evloop/dispatch.go
// Author: momentics <momentics@gmail.com>
//
// Readiness-event translation: reactor-native masks in, generic poll events
// out. Stateless apart from the forward call.

package evloop

import (
	"github.com/momentics/hioload-evbridge/api"
	"github.com/momentics/hioload-evbridge/reactor"
)

// readinessCallback binds one watch handle into the readiness translator.
func (b *Bridge) readinessCallback(h *watchHandle) reactor.Callback {
	return func(fd uintptr, r reactor.Readiness) {
		b.onReadiness(fd, r, h)
	}
}

// onReadiness converts a reactor-native event mask into the server's generic
// poll-event record and forwards it to the servicing entry point. Pure timer
// ticks are dropped. The legacy abrupt-close bit releases the watch locally
// and forwards nothing: a terminal readiness event needs no service call.
func (b *Bridge) onReadiness(fd uintptr, r reactor.Readiness, h *watchHandle) {
	if r&reactor.ReadyTimeout != 0 {
		return
	}
	if r&reactor.ReadyClosed != 0 {
		h.free()
		return
	}

	ev := api.PollEvent{FD: fd}
	if r&reactor.ReadyRead != 0 {
		ev.Events |= api.PollIn
		ev.REvents |= api.PollIn
	}
	if r&reactor.ReadyWrite != 0 {
		ev.Events |= api.PollOut
		ev.REvents |= api.PollOut
	}
	if ev.REvents == 0 {
		return
	}
	b.opts.Service(ev)
}
