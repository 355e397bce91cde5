// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package control carries the runtime knobs of the event-loop adapter:
// YAML configuration loading, config-file hot reload, and a counter registry
// used to track watch lifecycle balance.
package control
