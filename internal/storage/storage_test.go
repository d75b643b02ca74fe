package storage

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestLocalBackendRoundTrip(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := backend.Put(ctx, "models/site.ifc", []byte("ISO-10303-21;")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := backend.Get(ctx, "models/site.ifc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "ISO-10303-21;" {
		t.Errorf("Get = %q", data)
	}

	exists, err := backend.Exists(ctx, "models/site.ifc")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v", exists, err)
	}
	exists, err = backend.Exists(ctx, "models/missing.ifc")
	if err != nil || exists {
		t.Errorf("Exists(missing) = %v, %v", exists, err)
	}

	keys, err := backend.List(ctx, "models/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || keys[0] != "models/site.ifc" {
		t.Errorf("List = %v", keys)
	}

	if !backend.IsAvailable(ctx) {
		t.Error("local backend should be available")
	}
}

func TestLocalBackendRejectsEscapingKeys(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := backend.Get(context.Background(), "../outside"); err == nil {
		t.Error("expected error for key escaping the storage root")
	}
}

// flakyBackend fails reads a fixed number of times before succeeding.
type flakyBackend struct {
	failures int
	calls    int
}

func (f *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset by peer")
	}
	return []byte("payload"), nil
}
func (f *flakyBackend) Put(ctx context.Context, key string, data []byte) error { return nil }
func (f *flakyBackend) Exists(ctx context.Context, key string) (bool, error)  { return true, nil }
func (f *flakyBackend) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (f *flakyBackend) List(ctx context.Context, prefix string) ([]string, error) { return nil, nil }
func (f *flakyBackend) Type() string                                              { return "flaky" }
func (f *flakyBackend) IsAvailable(ctx context.Context) bool                      { return true }

func TestManagerRetriesTransientFailures(t *testing.T) {
	backend := &flakyBackend{failures: 2}
	mgr := NewManager(backend, 5)

	data, err := mgr.Get(context.Background(), "any")
	if err != nil {
		t.Fatalf("Get after retries: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
}

func TestManagerGivesUpOnPermanentError(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(backend, 3)
	if _, err := mgr.Get(context.Background(), "missing.ifc"); err == nil {
		t.Error("expected error for missing object")
	}
}
