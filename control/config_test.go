// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package control_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/momentics/hioload-evbridge/control"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "evbridge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := control.DefaultConfig()
	if !cfg.Enabled || cfg.Threads != 1 || !cfg.SignalWatch {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "enabled: false\nthreads: 4\n")
	cfg, err := control.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Enabled {
		t.Error("enabled should be overridden to false")
	}
	if cfg.Threads != 4 {
		t.Errorf("threads: got %d", cfg.Threads)
	}
	// Keys absent from the file keep their defaults.
	if !cfg.SignalWatch {
		t.Error("signal_watch default lost")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := control.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := writeConfig(t, t.TempDir(), "threads: [not a number\n")
	if _, err := control.Load(path); err == nil {
		t.Error("expected parse error")
	}
	// Nonsense thread counts are normalized.
	path = writeConfig(t, t.TempDir(), "threads: -3\n")
	cfg, err := control.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Threads != 1 {
		t.Errorf("negative threads not normalized: %d", cfg.Threads)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "threads: 2\n")

	ch := make(chan control.Config, 8)
	w, err := control.Watch(path, func(cfg control.Config) { ch <- cfg })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// The initial load is delivered synchronously.
	select {
	case cfg := <-ch:
		if cfg.Threads != 2 {
			t.Fatalf("initial load: got %d threads", cfg.Threads)
		}
	default:
		t.Fatal("initial config not delivered")
	}

	if err := os.WriteFile(path, []byte("threads: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-ch:
			if cfg.Threads == 8 {
				return
			}
			// Stale intermediate notification; keep waiting.
		case <-deadline:
			t.Fatal("reload not observed")
		}
	}
}
