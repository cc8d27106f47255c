package fs

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/aretw0/tickline/pkg/core"
)

// archiveEntries are the entry names accepted from an archive. Anything else,
// including nested paths, is skipped.
var archiveEntries = []string{chartPattern, "audio.*", "image.*"}

func (r *Repository) exportDir() string {
	if filepath.IsAbs(r.config.ExportDir) {
		return r.config.ExportDir
	}
	return filepath.Join(r.Path, r.config.ExportDir)
}

// Export packages the cached chart (as chart.json) and its assets into a zip
// archive. An empty dest writes "<project>/exports/<uuid>.zip".
func (r *Repository) Export(ctx context.Context, dest string) (string, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return "", err
	}

	if dest == "" {
		dest = filepath.Join(r.exportDir(), uuid.NewString()+".zip")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", core.IOError("create export directory", err)
	}

	chart, err := NewJSONSerializer().Encode(s)
	if err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}

	var assets []string
	for _, name := range []string{s.Assets.Audio, s.Assets.Image} {
		if name == "" {
			continue
		}
		if _, err := os.Stat(r.AssetPath(name)); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("cached asset %s: %w", name, core.ErrNotFound)
			}
			return "", core.IOError("stat asset", err)
		}
		assets = append(assets, name)
	}

	err = writeAtomic(dest, 0644, func(w io.Writer) error {
		zipWriter := zip.NewWriter(w)

		chartWriter, err := zipWriter.Create(chartBase + ".json")
		if err != nil {
			return fmt.Errorf("failed to create chart entry in zip: %w", err)
		}
		if _, err := chartWriter.Write(chart); err != nil {
			return fmt.Errorf("failed to write chart to zip: %w", err)
		}

		for _, name := range assets {
			if err := addFileToZip(zipWriter, name, r.AssetPath(name)); err != nil {
				return err
			}
		}
		return zipWriter.Close()
	})
	if err != nil {
		return "", core.IOError("write archive", err)
	}

	r.config.Logger.Info("archive exported", "path", dest, "assets", len(assets))
	return dest, nil
}

func addFileToZip(zipWriter *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	w, err := zipWriter.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s entry in zip: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s to zip: %w", name, err)
	}
	return nil
}

// Import unpacks an archive into a staging directory, validates the chart and
// the assets it references, and only then replaces the cache.
func (r *Repository) Import(ctx context.Context, src string) (core.Snapshot, error) {
	if r.readOnly {
		return core.Snapshot{}, fmt.Errorf("import archive: %w", core.ErrReadOnly)
	}

	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		// Non-local names are skipped during extraction.
		err = nil
	}
	switch {
	case os.IsNotExist(err):
		return core.Snapshot{}, fmt.Errorf("archive %s: %w", src, core.ErrNotFound)
	case errors.Is(err, zip.ErrFormat), errors.Is(err, zip.ErrAlgorithm), errors.Is(err, zip.ErrChecksum):
		return core.Snapshot{}, core.Corrupt(filepath.Base(src), "%v", err)
	case err != nil:
		return core.Snapshot{}, core.IOError("open archive", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(r.CacheDir(), 0755); err != nil {
		return core.Snapshot{}, core.IOError("create cache directory", err)
	}
	staging, err := os.MkdirTemp(r.CacheDir(), TempFilePrefix+"import-")
	if err != nil {
		return core.Snapshot{}, core.IOError("create staging directory", err)
	}
	defer os.RemoveAll(staging)

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return core.Snapshot{}, err
		}
		if !acceptEntry(f) {
			r.config.Logger.Debug("skipping archive entry", "name", f.Name)
			continue
		}
		if err := extractEntry(f, filepath.Join(staging, f.Name)); err != nil {
			if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrAlgorithm) {
				return core.Snapshot{}, core.Corrupt(filepath.Base(src), "entry %s: %v", f.Name, err)
			}
			return core.Snapshot{}, core.IOError("extract "+f.Name, err)
		}
	}

	chartName, err := r.chartFile(staging)
	if errors.Is(err, core.ErrNotFound) {
		return core.Snapshot{}, core.Corrupt(filepath.Base(src), "missing chart entry")
	}
	if err != nil {
		return core.Snapshot{}, err
	}
	s, err := r.decodeFile(filepath.Join(staging, chartName))
	if err != nil {
		return core.Snapshot{}, err
	}

	if err := checkStagedAsset(staging, core.AssetAudio, s.Assets.Audio); err != nil {
		return core.Snapshot{}, core.Corrupt(filepath.Base(src), "%v", err)
	}
	if err := checkStagedAsset(staging, core.AssetImage, s.Assets.Image); err != nil {
		return core.Snapshot{}, core.Corrupt(filepath.Base(src), "%v", err)
	}

	// The chart is re-encoded in the cache format next to the staged assets,
	// so the swap below only renames.
	ser := r.serializers[r.config.Format]
	data, err := ser.Encode(s)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("encode chart: %w", err)
	}
	chart := chartBase + ser.Ext()
	if err := writeFileAtomic(filepath.Join(staging, chart), data, 0644); err != nil {
		return core.Snapshot{}, core.IOError("stage chart", err)
	}

	incoming := []string{chart}
	for _, name := range []string{s.Assets.Audio, s.Assets.Image} {
		if name != "" {
			incoming = append(incoming, name)
		}
	}
	if err := r.swapIn(staging, incoming); err != nil {
		return core.Snapshot{}, err
	}

	now := time.Now()
	r.mu.Lock()
	r.lastSave = &now
	r.mu.Unlock()

	r.config.Logger.Info("archive imported", "path", src, "lines", len(s.Lines))
	return s, nil
}

// swapIn replaces the cached chart and assets with the named files from
// staging. The displaced files are parked in staging first and put back if
// any rename fails, leaving the cache as it was.
func (r *Repository) swapIn(staging string, incoming []string) error {
	backup := filepath.Join(staging, "previous")
	if err := os.Mkdir(backup, 0755); err != nil {
		return core.IOError("create backup directory", err)
	}

	var displaced []string
	for _, pattern := range archiveEntries {
		names, err := r.match(pattern)
		if err != nil {
			return err
		}
		displaced = append(displaced, names...)
	}

	var parked, installed []string
	rollback := func(cause error) error {
		var errs []error
		for _, name := range installed {
			if err := os.Remove(filepath.Join(r.CacheDir(), name)); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
			}
		}
		for _, name := range parked {
			if err := os.Rename(filepath.Join(backup, name), filepath.Join(r.CacheDir(), name)); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			r.config.Logger.Error("failed to restore cache after import", "error", errors.Join(errs...))
		}
		return cause
	}

	for _, name := range displaced {
		if err := os.Rename(filepath.Join(r.CacheDir(), name), filepath.Join(backup, name)); err != nil {
			return rollback(core.IOError("move aside "+name, err))
		}
		parked = append(parked, name)
	}
	for _, name := range incoming {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(r.CacheDir(), name)); err != nil {
			return rollback(core.IOError("move "+name, err))
		}
		installed = append(installed, name)
	}
	return nil
}

func acceptEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.ContainsAny(f.Name, `/\`) || f.Name == ".." {
		return false
	}
	for _, pattern := range archiveEntries {
		if ok, _ := doublestar.Match(pattern, f.Name); ok {
			return true
		}
	}
	return false
}

func extractEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// checkStagedAsset verifies that a referenced asset has a canonical name and
// was present in the archive.
func checkStagedAsset(staging string, kind core.AssetKind, name string) error {
	if name == "" {
		return nil
	}
	if ok, _ := doublestar.Match(string(kind)+".*", name); !ok || filepath.Base(name) != name {
		return fmt.Errorf("%s asset has a non-canonical name %q", kind, name)
	}
	if _, err := os.Stat(filepath.Join(staging, name)); err != nil {
		return fmt.Errorf("missing %s entry %s", kind, name)
	}
	return nil
}
