//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub factory for unsupported platforms.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-evbridge/api"
)

// NewReactor returns an error on platforms without a poller implementation.
// Embedding callers on such platforms must supply a foreign reactor.
func NewReactor() (Reactor, error) {
	return nil, fmt.Errorf("reactor: %w", api.ErrNotSupported)
}
