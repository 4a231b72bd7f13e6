package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const entryExt = ".entry"

// disk stores one file per key under root/<namespace>/<hash[:2]>/.
type disk struct {
	fs   afero.Fs
	root string
}

func (d *disk) path(namespace, hash string) string {
	return filepath.Join(d.root, namespace, hash[:2], hash+entryExt)
}

func (d *disk) read(namespace, hash string) ([]byte, error) {
	return afero.ReadFile(d.fs, d.path(namespace, hash))
}

// write stores data through a temporary file renamed into place, so
// concurrent readers see either the old entry or the new one.
func (d *disk) write(namespace, hash string, data []byte) error {
	target := d.path(namespace, hash)
	dir := filepath.Dir(target)
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache folder '%s': %w", dir, err)
	}

	tmp, err := afero.TempFile(d.fs, dir, hash+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		d.fs.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		d.fs.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry: %w", err)
	}
	if err := d.fs.Rename(tmpName, target); err != nil {
		d.fs.Remove(tmpName)
		return fmt.Errorf("failed to move cache entry into place: %w", err)
	}
	return nil
}

// NamespaceStats describes the entries of one namespace on disk.
type NamespaceStats struct {
	Namespace string
	Entries   int
	Bytes     int64
}

func (d *disk) stats() ([]NamespaceStats, error) {
	infos, err := afero.ReadDir(d.fs, d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache root '%s': %w", d.root, err)
	}

	var out []NamespaceStats
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		ns := NamespaceStats{Namespace: info.Name()}
		err := afero.Walk(d.fs, filepath.Join(d.root, info.Name()), func(path string, fi fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && strings.HasSuffix(path, entryExt) {
				ns.Entries++
				ns.Bytes += fi.Size()
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk cache namespace '%s': %w", ns.Namespace, err)
		}
		out = append(out, ns)
	}
	return out, nil
}

// clear removes namespace, or every namespace when it is empty.
func (d *disk) clear(namespace string) error {
	if namespace == "" {
		infos, err := afero.ReadDir(d.fs, d.root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to read cache root '%s': %w", d.root, err)
		}
		for _, info := range infos {
			if err := d.fs.RemoveAll(filepath.Join(d.root, info.Name())); err != nil {
				return fmt.Errorf("failed to clear cache namespace '%s': %w", info.Name(), err)
			}
		}
		return nil
	}
	if err := d.fs.RemoveAll(filepath.Join(d.root, namespace)); err != nil {
		return fmt.Errorf("failed to clear cache namespace '%s': %w", namespace, err)
	}
	return nil
}
