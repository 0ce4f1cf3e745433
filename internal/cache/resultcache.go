package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResultCache stores rendered extraction results keyed by a digest of the
// page URL, output format and extraction settings.
type ResultCache struct {
	Dir         string
	StrictPerms bool
}

func (c *ResultCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return mkdir(c.Dir, c.StrictPerms)
}

// KeyFrom builds a cache key from its parts. The order of parts matters.
func KeyFrom(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n\n")))
	return hex.EncodeToString(h[:])
}

func (c *ResultCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+resultSuffix)
}

// Get returns cached bytes if present.
func (c *ResultCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	touch(p)
	return b, true, nil
}

// Save writes bytes to cache.
func (c *ResultCache) Save(_ context.Context, key string, data []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), data, fileMode(c.StrictPerms))
}
