// Package cache stores reference-parser output on disk, keyed by a digest of
// the parser and the reference lines it was given.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoDir is returned when the cache has no directory configured.
var ErrNoDir = errors.New("cache dir not configured")

// ParseCache keeps raw parser JSON as <key>.json files.
type ParseCache struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the cache directory and 0600 on
	// files.
	StrictPerms bool
}

func (c *ParseCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return ErrNoDir
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	// MkdirAll leaves an existing directory alone.
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// KeyFrom builds a cache key from the parser identity and the reference lines.
func KeyFrom(parser string, lines []string) string {
	h := sha256.Sum256([]byte(parser + "\n\n" + strings.Join(lines, "\n")))
	return hex.EncodeToString(h[:])
}

func (c *ParseCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present. A miss is not an error.
func (c *ParseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// mtime doubles as last-access time for EnforceLimits.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes bytes to the cache, replacing any existing entry atomically.
func (c *ParseCache) Save(_ context.Context, key string, data []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	p := c.pathFor(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
