package topo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocument(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// waitForEvent reads from the subscription until an event of the wanted
// type arrives, skipping others.
func waitForEvent(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event channel closed while waiting for %q", want)
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", want)
		}
	}
}

func TestNewStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yml")
	writeDocument(t, path, sampleDocument)

	store, err := NewStore(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, 1, store.Version())
	require.NotNil(t, store.Spec())
	assert.Equal(t, "data-store", store.Spec().Name)
	assert.Equal(t, []byte(sampleDocument), store.Raw())

	health := store.GetHealth()
	assert.True(t, health.Healthy)
	assert.Equal(t, "data-store", health.Service)
	assert.Equal(t, 1, health.Version)
	assert.Equal(t, 2, health.Pods)
	assert.Empty(t, health.LastErrorStr)
	assert.False(t, health.Watching)
}

func TestNewStoreErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "absent.yml"))
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to read service document")
	})

	t.Run("invalid document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "svc.yml")
		writeDocument(t, path, "name: broken\npods: {}\n")

		_, err := NewStore(context.Background(), path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "is invalid")
		assert.ErrorContains(t, err, "at least one pod")
	})
}

func TestStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yml")
	writeDocument(t, path, sampleDocument)

	store, err := NewStore(context.Background(), path, WithWatcher())
	require.NoError(t, err)
	defer store.Close()
	assert.True(t, store.GetHealth().Watching)

	_, events := store.Subscribe()

	updated := strings.Replace(sampleDocument, "memory: 512", "memory: 1024", 1)
	writeDocument(t, path, updated)

	waitForEvent(t, events, EventReloaded)
	require.Eventually(t, func() bool {
		return store.Spec().Pods["index"].Tasks["node"].Memory == 1024
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, store.Version(), 2)
}

// A rewrite that fails validation keeps the last good document serving.
func TestStoreReloadKeepsLastGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yml")
	writeDocument(t, path, sampleDocument)

	store, err := NewStore(context.Background(), path, WithWatcher())
	require.NoError(t, err)
	defer store.Close()

	_, events := store.Subscribe()

	writeDocument(t, path, "name: broken\npods:\n  index:\n    count: 0\n")

	ev := waitForEvent(t, events, EventInvalid)
	assert.Contains(t, ev.Error, "count must be positive")

	assert.Equal(t, "data-store", store.Spec().Name)
	assert.Equal(t, 512, store.Spec().Pods["index"].Tasks["node"].Memory)
	assert.Equal(t, 1, store.Version())

	health := store.GetHealth()
	assert.True(t, health.Healthy)
	assert.Contains(t, health.LastErrorStr, "count must be positive")

	select {
	case storeErr := <-store.ErrorChan:
		require.NotNil(t, storeErr)
		assert.Equal(t, ErrDocument, storeErr.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for store error")
	}

	// A good rewrite recovers.
	writeDocument(t, path, sampleDocument)
	waitForEvent(t, events, EventReloaded)
	assert.GreaterOrEqual(t, store.Version(), 2)
	assert.Empty(t, store.GetHealth().LastErrorStr)
}

func TestStoreSubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yml")
	writeDocument(t, path, sampleDocument)

	store, err := NewStore(context.Background(), path)
	require.NoError(t, err)

	id, events := store.Subscribe()
	require.NotEmpty(t, id)

	store.Unsubscribe(id)
	_, ok := <-events
	assert.False(t, ok, "channel should be closed after Unsubscribe")

	// Unsubscribing twice is harmless.
	store.Unsubscribe(id)
	store.Close()
}

// Subscribing after Close yields an already-closed channel instead of
// one that would never be released.
func TestStoreSubscribeAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yml")
	writeDocument(t, path, sampleDocument)

	store, err := NewStore(context.Background(), path)
	require.NoError(t, err)
	store.Close()

	id, events := store.Subscribe()
	require.NotEmpty(t, id)

	_, ok := <-events
	assert.False(t, ok, "channel from a late Subscribe should be closed")

	// The id was never registered, so this is a no-op.
	store.Unsubscribe(id)
}

func TestStoreClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yml")
	writeDocument(t, path, sampleDocument)

	store, err := NewStore(context.Background(), path, WithWatcher())
	require.NoError(t, err)

	_, events := store.Subscribe()

	store.Close()
	store.Close() // idempotent

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed by Close")
		}
	}
}
