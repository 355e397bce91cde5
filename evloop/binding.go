// File: evloop/binding.go
// Author: momentics <momentics@gmail.com>
//
// Reactor ownership tagging. The owned/foreign distinction decides the
// single most safety-critical step of teardown: whether Release may destroy
// the reactor instance. Encoding it as two types keeps that decision on the
// dynamic type instead of a flag check that can be forgotten.

package evloop

import "github.com/momentics/hioload-evbridge/reactor"

// loopRef is a reactor instance tagged with its ownership.
type loopRef interface {
	Reactor() reactor.Reactor
	Foreign() bool

	// Release destroys the instance if and only if it is owned.
	Release() error
}

// ownedLoop was created by the bridge and is destroyed with its thread.
type ownedLoop struct {
	r reactor.Reactor
}

func (l ownedLoop) Reactor() reactor.Reactor { return l.r }
func (l ownedLoop) Foreign() bool            { return false }
func (l ownedLoop) Release() error           { return l.r.Close() }

// borrowedLoop was supplied by the embedding caller, who keeps ownership.
type borrowedLoop struct {
	r reactor.Reactor
}

func (l borrowedLoop) Reactor() reactor.Reactor { return l.r }
func (l borrowedLoop) Foreign() bool            { return true }
func (l borrowedLoop) Release() error           { return nil }
