package fs_test

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tickline/pkg/adapters/fs"
	"github.com/aretw0/tickline/pkg/core"
)

// cachedChartWithAssets saves the sample chart with an imported audio file
// and background image.
func cachedChartWithAssets(t *testing.T, repo *fs.Repository) *core.Document {
	t.Helper()
	ctx := context.Background()
	src := t.TempDir()

	audio := filepath.Join(src, "track.ogg")
	image := filepath.Join(src, "cover.png")
	require.NoError(t, os.WriteFile(audio, []byte("OggS-audio"), 0644))
	require.NoError(t, os.WriteFile(image, []byte("PNG-image"), 0644))

	doc := sampleChart(t)
	var err error
	doc.Assets.Audio, err = repo.ImportAsset(ctx, core.AssetAudio, audio)
	require.NoError(t, err)
	doc.Assets.Image, err = repo.ImportAsset(ctx, core.AssetImage, image)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, doc.Snapshot()))
	return doc
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestExport(t *testing.T) {
	repo, project := setupRepo(t, func(c *fs.Config) { c.Format = "yaml" })
	cachedChartWithAssets(t, repo)

	path, err := repo.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, "exports"), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".zip"))
	assert.Equal(t, []string{"audio.ogg", "chart.json", "image.png"}, zipEntries(t, path))

	dest := filepath.Join(t.TempDir(), "out", "lumen.zip")
	got, err := repo.Export(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)
}

func TestExport_NothingCached(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.Export(context.Background(), filepath.Join(t.TempDir(), "x.zip"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExportImport_RoundTrip(t *testing.T) {
	source, _ := setupRepo(t)
	doc := cachedChartWithAssets(t, source)
	archive, err := source.Export(context.Background(), filepath.Join(t.TempDir(), "chart.zip"))
	require.NoError(t, err)

	target, project := setupRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(project, ".tickline", "audio.mp3"), []byte("old"), 0644))

	snap, err := target.Import(context.Background(), archive)
	require.NoError(t, err)
	back, err := core.FromSnapshot(snap, doc.Limits())
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))

	audio, err := os.ReadFile(target.AssetPath("audio.ogg"))
	require.NoError(t, err)
	assert.Equal(t, "OggS-audio", string(audio))
	_, err = os.Stat(filepath.Join(project, ".tickline", "audio.mp3"))
	assert.True(t, os.IsNotExist(err), "previous audio is replaced")

	cached, err := target.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Assets, cached.Assets)

	entries, err := os.ReadDir(target.CacheDir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), fs.TempFilePrefix), "staging %s left behind", e.Name())
	}
}

func TestImport_Rejects(t *testing.T) {
	source, _ := setupRepo(t)
	cachedChartWithAssets(t, source)
	good, err := source.Export(context.Background(), filepath.Join(t.TempDir(), "good.zip"))
	require.NoError(t, err)

	chart := readZipEntry(t, good, "chart.json")
	dir := t.TempDir()

	cases := map[string]map[string]string{
		"missing chart":   {"audio.ogg": "a", "image.png": "i"},
		"missing audio":   {"chart.json": chart, "image.png": "i"},
		"malformed chart": {"chart.json": "{", "audio.ogg": "a", "image.png": "i"},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			target, _ := setupRepo(t)
			existing := cachedChartWithAssets(t, target)

			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".zip")
			writeZip(t, path, entries)

			_, err := target.Import(context.Background(), path)
			assert.ErrorIs(t, err, core.ErrCorrupt)

			snap, err := target.Load(context.Background())
			require.NoError(t, err, "failed import keeps the cache")
			back, err := core.FromSnapshot(snap, existing.Limits())
			require.NoError(t, err)
			assert.True(t, existing.Equal(back))
		})
	}

	t.Run("not a zip", func(t *testing.T) {
		target, _ := setupRepo(t)
		path := filepath.Join(dir, "plain.zip")
		require.NoError(t, os.WriteFile(path, []byte("definitely not a zip"), 0644))
		_, err := target.Import(context.Background(), path)
		assert.ErrorIs(t, err, core.ErrCorrupt)
	})

	t.Run("missing archive", func(t *testing.T) {
		target, _ := setupRepo(t)
		_, err := target.Import(context.Background(), filepath.Join(dir, "absent.zip"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestImport_SkipsNestedEntries(t *testing.T) {
	source, _ := setupRepo(t)
	require.NoError(t, source.Save(context.Background(), sampleChart(t).Snapshot()))
	good, err := source.Export(context.Background(), filepath.Join(t.TempDir(), "good.zip"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested.zip")
	writeZip(t, path, map[string]string{
		"chart.json":       readZipEntry(t, good, "chart.json"),
		"../escape.txt":    "x",
		"nested/audio.ogg": "y",
	})

	target, project := setupRepo(t)
	_, err = target.Import(context.Background(), path)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(project, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func readZipEntry(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	rc, err := zr.Open(name)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestImport_FailedSwapKeepsCache(t *testing.T) {
	ctx := context.Background()
	source, _ := setupRepo(t)
	cachedChartWithAssets(t, source)
	archive, err := source.Export(ctx, filepath.Join(t.TempDir(), "chart.zip"))
	require.NoError(t, err)

	project := filepath.Join(t.TempDir(), "project")
	cache := filepath.Join(project, ".tickline")
	previous := sampleChart(t)
	previous.Metadata.MusicName = "Previous"
	previous.Assets.Audio = "audio.mp3"

	yamlRepo := fs.NewRepository(fs.Config{Path: project, Format: "yaml"})
	require.NoError(t, yamlRepo.Initialize(ctx))
	require.NoError(t, yamlRepo.Save(ctx, previous.Snapshot()))
	require.NoError(t, os.WriteFile(filepath.Join(cache, "audio.mp3"), []byte("old"), 0644))
	chartBefore, err := os.ReadFile(filepath.Join(cache, "chart.yaml"))
	require.NoError(t, err)

	// A non-empty directory where the new chart.json must land.
	blocker := filepath.Join(cache, "chart.json")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "x"), 0755))

	target := fs.NewRepository(fs.Config{Path: project})
	require.NoError(t, target.Initialize(ctx))
	_, err = target.Import(ctx, archive)
	assert.ErrorIs(t, err, core.ErrIO)

	audio, err := os.ReadFile(filepath.Join(cache, "audio.mp3"))
	require.NoError(t, err, "previous audio is restored")
	assert.Equal(t, "old", string(audio))
	chartAfter, err := os.ReadFile(filepath.Join(cache, "chart.yaml"))
	require.NoError(t, err, "previous chart is restored")
	assert.Equal(t, chartBefore, chartAfter)

	for _, name := range []string{"audio.ogg", "image.png"} {
		_, err := os.Stat(filepath.Join(cache, name))
		assert.True(t, os.IsNotExist(err), "%s must not be installed", name)
	}
	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), fs.TempFilePrefix), "staging %s left behind", e.Name())
	}

	require.NoError(t, os.RemoveAll(blocker))
	snap, err := yamlRepo.Load(ctx)
	require.NoError(t, err)
	back, err := core.FromSnapshot(snap, previous.Limits())
	require.NoError(t, err)
	assert.True(t, previous.Equal(back))
}
