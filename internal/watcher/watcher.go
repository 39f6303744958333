// Package watcher keeps desktop entries converged with stored visibility.
//
// The Android runtime rewrites .desktop files whenever an app is installed
// or updated, which silently undoes a NoDisplay flag the user asked for. The
// Watcher observes the desktop-entry directory and reapplies the stored
// preference to any entry that drifts. Entries for packages without a stored
// preference are left alone.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/desktop"
	"github.com/blackwell-systems/waybridge/internal/store"
)

// debounceWindow batches the burst of events an installer produces while
// writing one file.
const debounceWindow = 200 * time.Millisecond

// Watcher reapplies stored visibility to desktop entries as they change.
type Watcher struct {
	store   *store.Store
	appsDir string
	fs      *fsnotify.Watcher
	logger  *zap.Logger

	debounce time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher for the given desktop-entry directory.
func New(st *store.Store, appsDir string, logger *zap.Logger) (*Watcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	return &Watcher{
		store:    st,
		appsDir:  appsDir,
		fs:       fs,
		logger:   logger,
		debounce: debounceWindow,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start reconciles every existing entry once, then begins watching the
// directory. The directory is created if it does not exist yet so the watch
// can bind before the runtime's first install.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.appsDir, 0755); err != nil {
		return fmt.Errorf("failed to create apps directory: %w", err)
	}
	if err := w.fs.Add(w.appsDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.appsDir, err)
	}

	w.reconcileAll()

	w.wg.Add(1)
	go w.run()

	w.logger.Info("desktop entry watcher started", zap.String("dir", w.appsDir))
	return nil
}

// Stop halts the event loop and releases the underlying watch.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

// run batches create/write events per path and reconciles each once the
// burst settles.
func (w *Watcher) run() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".desktop" {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			for path := range pending {
				w.reconcile(path)
			}
			pending = make(map[string]struct{})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watch error", zap.Error(err))
		}
	}
}

// reconcileAll applies stored visibility to every entry currently present.
func (w *Watcher) reconcileAll() {
	files, err := os.ReadDir(w.appsDir)
	if err != nil {
		w.logger.Warn("failed to scan apps directory", zap.Error(err))
		return
	}
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".desktop" {
			continue
		}
		w.reconcile(filepath.Join(w.appsDir, file.Name()))
	}
}

// reconcile rewrites one entry's display flag if it disagrees with the
// stored preference. Writing only on disagreement keeps the watcher from
// reacting to its own writes forever.
func (w *Watcher) reconcile(path string) {
	entry, err := desktop.ParseEntry(path)
	if err != nil {
		// Entries vanish mid-burst when installs are replaced.
		w.logger.Debug("skipping unreadable entry", zap.String("path", path), zap.Error(err))
		return
	}

	pkg := entry.PackageName()
	if pkg == "" {
		return
	}

	rec, err := w.store.GetVisibility(pkg)
	if err != nil {
		w.logger.Warn("failed to load visibility preference",
			zap.String("package", pkg), zap.Error(err))
		return
	}
	if rec == nil {
		return
	}

	wantNoDisplay := !rec.Visible
	if entry.HasNoDisplay && entry.NoDisplay == wantNoDisplay {
		return
	}
	if !entry.HasNoDisplay && !wantNoDisplay {
		// An absent flag already means visible.
		return
	}

	if err := desktop.SetNoDisplay(path, wantNoDisplay); err != nil {
		w.logger.Warn("failed to reapply visibility",
			zap.String("path", path), zap.Error(err))
		return
	}

	w.logger.Info("reapplied stored visibility",
		zap.String("package", pkg),
		zap.Bool("visible", rec.Visible),
	)
}
