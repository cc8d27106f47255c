package tickline_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tickline"
	"github.com/aretw0/tickline/pkg/core"
)

// TestConcurrency_EditsWatchAndNoise runs edits, cache saves and playback
// while another process drops unrelated files into the cache directory.
// The session must not deadlock and the final cache must load.
func TestConcurrency_EditsWatchAndNoise(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	dir := t.TempDir()
	svc, err := tickline.New(dir)
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var wg sync.WaitGroup

	// External writer in the cache directory.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			name := filepath.Join(dir, ".tickline", fmt.Sprintf("noise-%d.txt", rand.Intn(10)))
			_ = os.WriteFile(name, []byte(time.Now().String()), 0644)
			time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		}
	}()

	// Editor placing notes and caching.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ctx.Err() == nil; i++ {
			_ = svc.AddNote(0, core.NoteSpec{Type: core.Tap, Time: rand.Intn(4800), Width: 1})
			if i%5 == 0 {
				_ = svc.SaveCache(context.Background())
			}
			time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		}
	}()

	// Transport toggling and sampling.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			_ = svc.Start()
			_, _ = svc.Sample()
			_ = svc.Stop()
			_ = svc.Seek(float64(rand.Intn(480)))
			time.Sleep(time.Millisecond)
		}
	}()

	stream, err := svc.Watch(ctx, "*")
	require.NoError(t, err)
	events := svc.Subscribe(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stream:
			case <-events:
			}
		}
	}()

	wg.Wait()

	require.NoError(t, svc.SaveCache(context.Background()))
	want := svc.Document()

	reopened, err := tickline.New(dir)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.LoadCache(context.Background()))
	assert.True(t, want.Equal(reopened.Document()))
	t.Logf("Survived with %d notes", want.Lines()[0].NoteCount())
}
