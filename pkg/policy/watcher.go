// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tiermigrate.
//
// go-tiermigrate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package policy

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeremyhahn/go-tiermigrate/pkg/adapters"
)

// watchDebounce coalesces the write bursts editors and atomic saves
// produce into a single reload.
const watchDebounce = 100 * time.Millisecond

// Watcher reloads a Store when an external writer changes its backing
// file. The store itself stays last-writer-wins; the watcher only keeps
// a long-running process from serving a stale policy list.
type Watcher struct {
	store  *Store
	logger adapters.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for the given store.
func NewWatcher(store *Store, logger adapters.Logger) *Watcher {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Watcher{store: store, logger: logger}
}

// Start begins watching the policy file's directory. Watching the
// directory rather than the file survives rename-based saves. Stop or
// context cancellation ends the watch.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.store.Path())
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.watcher = fsw
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx, fsw)

	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw := w.watcher
	cancel := w.cancel
	w.watcher = nil
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if fsw != nil {
		err = fsw.Close()
	}
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	target := filepath.Clean(w.store.Path())
	var lastReload time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastReload) < watchDebounce {
				continue
			}
			lastReload = time.Now()

			if err := w.store.load(); err != nil {
				w.logger.Warn(ctx, "policy file reload failed",
					adapters.Field{Key: "path", Value: target},
					adapters.Field{Key: "error", Value: err.Error()})
				continue
			}
			w.logger.Info(ctx, "policy file reloaded",
				adapters.Field{Key: "path", Value: target},
				adapters.Field{Key: "policies", Value: len(w.store.List())})

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "policy file watch error",
				adapters.Field{Key: "error", Value: err.Error()})
		}
	}
}
