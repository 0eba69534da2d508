package namedgraph_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entitygraph/namedgraph"
)

func TestWatcher(t *testing.T) {
	m := newModel(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "graphs.yaml", yamlDefs)

	r := namedgraph.New(m)
	_, err := r.LoadDir(dir)
	require.NoError(t, err)

	events := make(chan namedgraph.Event, 16)
	w, err := namedgraph.NewWatcher(r, []string{dir},
		namedgraph.WithDebounce(10*time.Millisecond),
		namedgraph.OnReload(func(ev namedgraph.Event) { events <- ev }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	next := func(t *testing.T) namedgraph.Event {
		t.Helper()
		select {
		case ev := <-events:
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("no reload event")
			return namedgraph.Event{}
		}
	}

	t.Run("Modify", func(t *testing.T) {
		writeFile(t, dir, "graphs.yaml", "graphs:\n  - {name: Employee.name, type: Employee, attributeNodes: [name]}\n")
		ev := next(t)
		require.NoError(t, ev.Err)
		assert.Equal(t, path, ev.Path)
		assert.Equal(t, []string{"Employee.name"}, ev.Names)
		assert.Equal(t, []string{"Employee.name"}, r.Names())
	})

	t.Run("Invalid", func(t *testing.T) {
		writeFile(t, dir, "graphs.yaml", "graphs: [{name: bad, type: Nope}]\n")
		ev := next(t)
		assert.Error(t, ev.Err)
		assert.Equal(t, []string{"Employee.name"}, r.Names())
	})

	t.Run("Create", func(t *testing.T) {
		writeFile(t, dir, "more.json", jsonDefs)
		ev := next(t)
		require.NoError(t, ev.Err)
		assert.Equal(t, filepath.Join(dir, "more.json"), ev.Path)
		_, ok := r.Get("Manager.level")
		assert.True(t, ok)
	})

	t.Run("Ignored", func(t *testing.T) {
		writeFile(t, dir, "notes.txt", "graphs")
		select {
		case ev := <-events:
			t.Fatalf("unexpected event for %s", ev.Path)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "more.json")))
		ev := next(t)
		assert.True(t, ev.Removed)
		assert.Equal(t, []string{"Manager.level"}, ev.Names)
		_, ok := r.Get("Manager.level")
		assert.False(t, ok)
	})
}

func TestNewWatcher(t *testing.T) {
	r := namedgraph.New(newModel(t))
	_, err := namedgraph.NewWatcher(r, []string{filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := writeFile(t, t.TempDir(), "graphs.yaml", yamlDefs)
	w, err := namedgraph.NewWatcher(r, []string{path, path})
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestWatcher_ClosePending(t *testing.T) {
	r := namedgraph.New(newModel(t))
	dir := t.TempDir()
	base := runtime.NumGoroutine()

	var (
		started = make(chan string, 2)
		release = make(chan struct{})
	)
	w, err := namedgraph.NewWatcher(r, []string{dir},
		namedgraph.WithDebounce(20*time.Millisecond),
		namedgraph.OnReload(func(ev namedgraph.Event) {
			started <- ev.Path
			<-release
		}),
	)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	// The first reload blocks while the debounce timer of the second file
	// fires, then the watcher is closed.
	writeFile(t, dir, "a.yaml", yamlDefs)
	writeFile(t, dir, "b.json", jsonDefs)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event")
	}
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Close())
	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base
	}, 2*time.Second, 20*time.Millisecond, "debounce timers outlive Run")
}
