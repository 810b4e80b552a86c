package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/logging"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// ReloadFunc receives a freshly loaded catalog.
type ReloadFunc func(*Catalog)

// Watcher reloads the catalog when plugin.json changes.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	onReload ReloadFunc
	logger   *logging.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher watches the manifest directory under root.
func NewWatcher(root string, onReload ReloadFunc, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	dir := filepath.Join(root, filepath.Dir(ManifestPath))
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{
		root:     root,
		watcher:  fw,
		onReload: onReload,
		logger:   logger.Named("plugin.watcher"),
		done:     make(chan struct{}),
	}, nil
}

// Run processes filesystem events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	manifest := filepath.Base(ManifestPath)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != manifest {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	cat, err := LoadCatalog(w.root)
	if err != nil {
		// Editors often write in several steps; keep the previous catalog.
		w.logger.Warn(ctx, "manifest reload failed", zap.Error(err))
		return
	}
	w.logger.Info(ctx, "manifest reloaded", zap.Int("skills", cat.Len()))
	if w.onReload != nil {
		w.onReload(cat)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
