// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Config-file hot reload. Each successful re-parse of the watched file is
// delivered to the registered hooks.

package control

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads a config file when it changes and notifies hooks.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher
	mu   sync.Mutex
	hook []func(Config)
	done chan struct{}
}

// Watch starts watching path and calls hook with every reloaded Config.
// The initial load happens synchronously; a load or parse failure of a
// later revision is skipped without notifying.
func Watch(path string, hook func(Config)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("control: fsnotify: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("control: watch %s: %w", path, err)
	}
	w := &Watcher{
		path: path,
		fsw:  fsw,
		hook: []func(Config){hook},
		done: make(chan struct{}),
	}
	hook(cfg)
	go w.run()
	return w, nil
}

// OnReload registers an additional reload hook.
func (w *Watcher) OnReload(fn func(Config)) {
	w.mu.Lock()
	w.hook = append(w.hook, fn)
	w.mu.Unlock()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				continue
			}
			w.dispatch(cfg)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) dispatch(cfg Config) {
	w.mu.Lock()
	hooks := make([]func(Config), len(w.hook))
	copy(hooks, w.hook)
	w.mu.Unlock()
	for _, fn := range hooks {
		fn(cfg)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
