package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tickline/pkg/adapters/fs"
	"github.com/aretw0/tickline/pkg/core"
)

func nextEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "events channel closed early")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for cache event")
		return core.Event{}
	}
}

func TestWatch_ReportsChartSave(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "chart.*")
	require.NoError(t, err)

	go func() {
		_ = repo.Save(context.Background(), sampleChart(t).Snapshot())
	}()

	e := nextEvent(t, events)
	assert.Equal(t, core.EventCacheChanged, e.Type)
	assert.Equal(t, "chart.json", e.ID)
}

func TestWatch_FiltersByPattern(t *testing.T) {
	repo, project := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "image.*")
	require.NoError(t, err)

	cache := filepath.Join(project, ".tickline")
	go func() {
		_ = os.WriteFile(filepath.Join(cache, "notes.txt"), []byte("x"), 0644)
		time.Sleep(2 * fs.DebounceInterval)
		_ = os.WriteFile(filepath.Join(cache, "image.png"), []byte("png"), 0644)
	}()

	e := nextEvent(t, events)
	assert.Equal(t, "image.png", e.ID)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := repo.Watch(ctx, "")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		st := repo.State().(fs.RepositoryState)
		return st.WatcherActive
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("events channel was not closed")
	}
	assert.Eventually(t, func() bool {
		st := repo.State().(fs.RepositoryState)
		return !st.WatcherActive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_InvalidPattern(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.Watch(context.Background(), "chart.[")
	assert.ErrorIs(t, err, core.ErrValidation)
}
