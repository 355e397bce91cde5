// File: api/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection and descriptor accessors consumed from the server core.

package api

// DescKind distinguishes the per-role descriptor type of a connection.
type DescKind uint8

const (
	// DescSocket marks a network socket descriptor.
	DescSocket DescKind = iota
	// DescFile marks a plain file descriptor (raw-file roles).
	DescFile
)

// Desc identifies a socket or file descriptor together with its kind.
type Desc struct {
	Kind   DescKind
	SockFD uintptr
	FileFD uintptr
}

// SocketDesc builds a socket descriptor record.
func SocketDesc(fd uintptr) Desc {
	return Desc{Kind: DescSocket, SockFD: fd}
}

// FileDesc builds a file descriptor record.
func FileDesc(fd uintptr) Desc {
	return Desc{Kind: DescFile, FileFD: fd}
}

// FD resolves the underlying descriptor according to its kind.
func (d Desc) FD() uintptr {
	if d.Kind == DescFile {
		return d.FileFD
	}
	return d.SockFD
}

// Conn exposes the connection attributes the event-loop adapter needs from
// the server's connection table. The adapter never performs I/O on the
// descriptor itself.
type Conn interface {
	// ThreadIndex returns the index of the worker thread owning this
	// connection. All watch operations for the connection happen on that
	// thread's reactor instance.
	ThreadIndex() int

	// Desc returns the connection's descriptor record.
	Desc() Desc
}
