// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the contracts shared between the embedding server core
// and the event-loop adapter: the generic poll-event record, descriptor
// kinds, connection accessors, and common error values.
package api
