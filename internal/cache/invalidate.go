package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

type entry struct {
	path string
	mod  time.Time
}

func entries(dir string) ([]entry, error) {
	var out []entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // vanished
		}
		out = append(out, entry{path: path, mod: info.ModTime().UTC()})
		return nil
	})
	return out, err
}

// PurgeByAge removes cache entries whose modification time is older than
// maxAge. A non-positive maxAge disables purging.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	all, err := entries(dir)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	for _, e := range all {
		if now.Sub(e.mod) <= maxAge {
			continue
		}
		if os.Remove(e.path) == nil {
			removed++
		}
	}
	return removed, nil
}

// EnforceLimits evicts least recently used entries until at most maxEntries
// remain and, when maxBytes is positive, their total size fits in maxBytes.
// Zero disables the corresponding limit.
func EnforceLimits(dir string, maxBytes int64, maxEntries int) (int, error) {
	all, err := entries(dir)
	if err != nil {
		return 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].mod.Before(all[j].mod) })
	var total int64
	sizes := make([]int64, len(all))
	for i, e := range all {
		if info, err := os.Stat(e.path); err == nil {
			sizes[i] = info.Size()
			total += sizes[i]
		}
	}
	removed := 0
	for i, e := range all {
		left := len(all) - removed
		overCount := maxEntries > 0 && left > maxEntries
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		if os.Remove(e.path) != nil {
			continue
		}
		removed++
		total -= sizes[i]
	}
	return removed, nil
}
