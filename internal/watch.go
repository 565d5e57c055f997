package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	tt "github.com/gnoverse/canopy/internal/types"
	"go.uber.org/zap"
)

// debounceDelay coalesces editor write bursts into one run.
const debounceDelay = 100 * time.Millisecond

// Watcher re-normalizes a source file through the engine whenever it
// changes on disk.
type Watcher struct {
	engine    *Engine
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	watchDirs []string

	// read by the watch goroutine while StopWatching writes it
	isWatching atomic.Bool
}

// NewWatcher creates a watcher over the given paths. Directories are
// watched recursively.
func NewWatcher(engine *Engine, logger *zap.Logger, paths []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	return &Watcher{
		engine:    engine,
		logger:    logger,
		watcher:   fsw,
		watchDirs: paths,
	}, nil
}

func (w *Watcher) StartWatching() error {
	if w.isWatching.Load() {
		return fmt.Errorf("already watching")
	}

	for _, dir := range w.watchDirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return w.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	w.isWatching.Store(true)
	go w.watchLoop()
	return nil
}

func (w *Watcher) StopWatching() error {
	if !w.isWatching.Load() {
		w.logger.Info("not watching")
	}

	w.isWatching.Store(false)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for w.isWatching.Load() {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Write == fsnotify.Write {
		if strings.HasSuffix(event.Name, ".py") {
			// wait for a while after file change to consider multiple changes as one
			time.Sleep(debounceDelay)
			content, err := os.ReadFile(event.Name)
			if err != nil {
				w.logger.Error("error reading changed file", zap.String("file", event.Name), zap.Error(err))
				return
			}
			result := w.engine.RunUnit(tt.Unit{ID: event.Name, Source: string(content)})
			w.reportResult(result)
		}
	}
}

func (w *Watcher) reportResult(result tt.UnitResult) {
	w.logger.Info("normalized",
		zap.String("unit", result.ID),
		zap.String("status", string(result.Status)),
		zap.Strings("passes", result.PassesApplied),
		zap.Int("diagnostics", len(result.Diagnostics)))
	for _, diag := range result.Diagnostics {
		w.logger.Info("diagnostic", zap.String("detail", diag.String()))
	}
}
