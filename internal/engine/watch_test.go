package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Watch(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.sql")
	docPath := filepath.Join(dir, "DATA.md")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{schemaPath, docPath, other} {
		require.NoError(t, os.WriteFile(p, []byte("\n"), 0o600))
	}

	e := newEngine(t, Config{Schema: schemaPath, Documentation: []string{docPath}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, 20*time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return errors.New("violations are logged, not fatal")
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond,
		"runs once on start")

	require.NoError(t, os.WriteFile(other, []byte("unrelated\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "unwatched files are ignored")

	require.NoError(t, os.WriteFile(docPath, []byte("# changed\n"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 5*time.Second, 10*time.Millisecond,
		"re-runs after a change")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestEngine_WatchRemoteOnly(t *testing.T) {
	e := newEngine(t, Config{
		Schema:        "https://example.com/schema.json",
		Documentation: []string{"https://example.com/wiki/Data"},
	})
	err := e.Watch(context.Background(), 0, func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrNothingToWatch)
}
