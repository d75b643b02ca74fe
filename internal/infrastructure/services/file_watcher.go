// Package services holds long-running infrastructure helpers. The file
// watcher feeds the CLI's watch mode: it monitors a directory for IFC
// files and emits a debounced event per settled file.
package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arx-os/ifcgeom/internal/common/logger"
)

// FileEvent reports one IFC file ready for processing.
type FileEvent struct {
	Path   string
	Action string // created, modified
}

// FileWatcher watches a directory for IFC files.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	events   chan FileEvent
	log      *logger.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewFileWatcher creates a watcher over dir. debounce collapses the
// burst of write events a large file copy produces into one event
// after the file settles.
func NewFileWatcher(dir string, debounce time.Duration, log *logger.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &FileWatcher{
		watcher:  w,
		events:   make(chan FileEvent, 100),
		log:      log,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel watch-mode consumers drain.
func (fw *FileWatcher) Events() <-chan FileEvent { return fw.events }

// Run pumps fsnotify events until ctx is done, then closes the event
// channel.
func (fw *FileWatcher) Run(ctx context.Context) {
	defer fw.watcher.Close()
	defer close(fw.events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(ev)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if fw.log != nil {
				fw.log.Warn("watcher: %v", err)
			}
		}
	}
}

func (fw *FileWatcher) handle(ev fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".ifc") {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	action := "modified"
	if ev.Op&fsnotify.Create != 0 {
		action = "created"
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if t, ok := fw.pending[ev.Name]; ok {
		t.Stop()
	}
	path := ev.Name
	fw.pending[path] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.pending, path)
		fw.mu.Unlock()

		select {
		case fw.events <- FileEvent{Path: path, Action: action}:
		default:
			if fw.log != nil {
				fw.log.Warn("watcher: event buffer full, dropping %s", path)
			}
		}
	})
}
