package cache

import (
	"encoding/json"
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

// PurgeByAge removes cache entries older than maxAge. Pages are aged by the
// SavedAt timestamp in <key>.meta.json; results by file modification time.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, metaSuffix):
			b, err := os.ReadFile(path)
			if err != nil {
				return nil // skip unreadable
			}
			var e PageEntry
			if err := json.Unmarshal(b, &e); err != nil {
				return nil // skip malformed
			}
			if now.Sub(e.SavedAt) <= maxAge {
				return nil
			}
			removed++
			_ = os.Remove(path)
			_ = os.Remove(strings.TrimSuffix(path, metaSuffix) + bodySuffix)
		case strings.HasSuffix(name, resultSuffix):
			info, err := d.Info()
			if err != nil || now.Sub(info.ModTime().UTC()) <= maxAge {
				return nil
			}
			removed++
			_ = os.Remove(path)
		}
		return nil
	})
	return removed, err
}

type cacheItem struct {
	paths   []string
	size    int64
	lastUse time.Time
}

// EnforceLimits evicts least recently used entries until the cache holds at
// most maxCount entries and maxBytes bytes. A zero limit is not enforced.
// A page and its metadata count as one entry.
func EnforceLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	if maxBytes <= 0 && maxCount <= 0 {
		return 0, nil
	}
	items := map[string]*cacheItem{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		var key string
		switch {
		case strings.HasSuffix(name, metaSuffix):
			key = strings.TrimSuffix(path, metaSuffix)
		case strings.HasSuffix(name, bodySuffix):
			key = strings.TrimSuffix(path, bodySuffix)
		case strings.HasSuffix(name, resultSuffix):
			key = path
		default:
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		it := items[key]
		if it == nil {
			it = &cacheItem{}
			items[key] = it
		}
		it.paths = append(it.paths, path)
		it.size += info.Size()
		if info.ModTime().After(it.lastUse) {
			it.lastUse = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	list := make([]*cacheItem, 0, len(items))
	var total int64
	for _, it := range items {
		list = append(list, it)
		total += it.size
	}
	sort.Slice(list, func(i, j int) bool { return list[i].lastUse.Before(list[j].lastUse) })

	removed := 0
	for _, it := range list {
		overCount := maxCount > 0 && len(list)-removed > maxCount
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		for _, p := range it.paths {
			_ = os.Remove(p)
		}
		total -= it.size
		removed++
	}
	return removed, nil
}
