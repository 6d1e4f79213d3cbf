// Copyright © 2024 The ELPS authors

package runner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []string, 16)
	w, err := NewWatcher(defaultFilter(t), 50*time.Millisecond, quietLogger(), func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, []string{dir}) }()
	time.Sleep(50 * time.Millisecond)

	mod := filepath.Join(dir, "mod.py")
	writeFile(t, mod, "x = 1\n")
	waitFor(t, changed, mod)

	nested := filepath.Join(dir, "pkg", "nested.py")
	writeFile(t, nested, "y = 2\n")
	waitFor(t, changed, nested)

	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	select {
	case paths := <-changed:
		for _, p := range paths {
			assert.NotEqual(t, "notes.txt", filepath.Base(p))
		}
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_MissingRoot(t *testing.T) {
	w, err := NewWatcher(Filter{}, 0, nil, func([]string) {})
	require.NoError(t, err)
	defer w.Close()
	err = w.Watch(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}
