package titles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/docstruct/internal/structure"
)

// Watcher serves the table from a YAML file and reloads it when the file
// changes. A reload that fails validation keeps the previous table.
type Watcher struct {
	path    string
	log     *slog.Logger
	current atomic.Pointer[structure.TitleTable]

	mu        sync.Mutex
	callbacks []func(structure.TitleTable)

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher loads path once. Call Start to follow changes.
func NewWatcher(path string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve titles path: %w", err)
	}
	table, err := Load(abs)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: abs, log: log.With("titles_file", abs)}
	w.current.Store(&table)
	return w, nil
}

// Current returns the most recently loaded table.
func (w *Watcher) Current() structure.TitleTable {
	return *w.current.Load()
}

// OnChange registers fn to run after each successful reload.
func (w *Watcher) OnChange(fn func(structure.TitleTable)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start watches the file's directory, since editors often replace files
// rather than write them in place. It returns once the watch is set up;
// events are handled until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw
	w.done = make(chan struct{})

	go w.loop(ctx)
	return nil
}

// Close stops watching. It is a no-op if Start was never called.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("titles watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	table, err := Load(w.path)
	if err != nil {
		w.log.Error("titles reload failed, keeping previous table", "error", err)
		return
	}
	w.current.Store(&table)
	w.log.Info("titles reloaded", "entries", len(table))

	w.mu.Lock()
	callbacks := make([]func(structure.TitleTable), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(table)
	}
}
