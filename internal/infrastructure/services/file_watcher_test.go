package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arx-os/ifcgeom/internal/common/logger"
)

func TestFileWatcherEmitsSettledIFCFiles(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher(dir, 50*time.Millisecond, logger.New(logger.ERROR))
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx)

	path := filepath.Join(dir, "site.ifc")
	if err := os.WriteFile(path, []byte("ISO-10303-21;"), 0o644); err != nil {
		t.Fatal(err)
	}
	// unrelated extension must not produce an event
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-fw.Events():
		if ev.Path != path {
			t.Errorf("event path = %q, want %q", ev.Path, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for new IFC file")
	}

	select {
	case ev := <-fw.Events():
		t.Errorf("unexpected extra event: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileWatcherClosesOnCancel(t *testing.T) {
	fw, err := NewFileWatcher(t.TempDir(), 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fw.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}
