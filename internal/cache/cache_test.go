package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPageCache_SaveLoad(t *testing.T) {
	c := &PageCache{Dir: t.TempDir()}
	entry := PageEntry{URL: "https://a.com/x", FinalURL: "https://a.com/y", ContentType: "text/html", ETag: `"e1"`}
	if err := c.Save(context.Background(), entry, []byte("<p>hi</p>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(context.Background(), entry.URL)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.FinalURL != "https://a.com/y" || meta.ETag != `"e1"` || meta.SavedAt.IsZero() {
		t.Fatalf("unexpected meta %+v", meta)
	}
	body, err := c.LoadBody(context.Background(), entry.URL)
	if err != nil || string(body) != "<p>hi</p>" {
		t.Fatalf("unexpected body %q err=%v", body, err)
	}
	if _, err := c.LoadMeta(context.Background(), "https://a.com/missing"); err == nil {
		t.Fatalf("expected error for missing entry")
	}
}

func TestPageCache_StrictPerms(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "pages")
	c := &PageCache{Dir: dir, StrictPerms: true}
	url := "https://example.com/x"
	if err := c.Save(context.Background(), PageEntry{URL: url, ContentType: "text/html"}, []byte("hello")); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	key := c.key(url)
	for _, f := range []string{filepath.Join(dir, key+".body"), filepath.Join(dir, key+".meta.json")} {
		finfo, err := os.Stat(f)
		if err != nil {
			t.Fatalf("stat %s: %v", f, err)
		}
		if got := finfo.Mode() & 0o777; got != 0o600 {
			t.Fatalf("%s mode = %o, want 0600", f, got)
		}
	}
}

func TestEnforceLimits_Count(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &PageCache{Dir: dir}
	urls := []string{"https://a.com/1", "https://a.com/2", "https://a.com/3"}
	for i, u := range urls {
		if err := c.Save(context.Background(), PageEntry{URL: u}, []byte(fmt.Sprintf("body-%d", i))); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	// Touch the first to make it most recently used
	if _, err := c.LoadBody(context.Background(), urls[0]); err != nil {
		t.Fatalf("touch body: %v", err)
	}
	removed, err := EnforceLimits(dir, 0, 2)
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := c.LoadBody(context.Background(), urls[1]); err == nil {
		t.Fatalf("expected least recently used evicted")
	}
	if _, err := c.LoadBody(context.Background(), urls[0]); err != nil {
		t.Fatalf("expected touched entry kept")
	}
}

func TestEnforceLimits_Bytes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &ResultCache{Dir: dir}
	if err := c.Save(context.Background(), KeyFrom("a"), []byte("1111111111")); err != nil {
		t.Fatalf("save 1: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := c.Save(context.Background(), KeyFrom("b"), []byte("22")); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	removed, err := EnforceLimits(dir, 5, 0)
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected the oldest entry removed, got %d", removed)
	}
	if _, ok, _ := c.Get(context.Background(), KeyFrom("b")); !ok {
		t.Fatalf("expected newest entry kept")
	}
}

func TestResultCache_SaveGet(t *testing.T) {
	c := &ResultCache{Dir: t.TempDir()}
	key := KeyFrom("https://a.com/x", "markdown", "500")
	if key == KeyFrom("https://a.com/x", "text", "500") {
		t.Fatalf("expected format to change the key")
	}
	if _, ok, err := c.Get(context.Background(), key); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Save(context.Background(), key, []byte("# Title")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok || string(got) != "# Title" {
		t.Fatalf("unexpected get %q ok=%v err=%v", got, ok, err)
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	pages := &PageCache{Dir: dir}
	results := &ResultCache{Dir: dir}
	if err := pages.Save(context.Background(), PageEntry{URL: "https://a.com/old"}, []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Age the page entry by rewriting its metadata
	meta := filepath.Join(dir, pages.key("https://a.com/old")+".meta.json")
	old := fmt.Sprintf(`{"url":"https://a.com/old","saved_at":%q}`, time.Now().Add(-2*time.Hour).UTC().Format(time.RFC3339))
	if err := os.WriteFile(meta, []byte(old), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	key := KeyFrom("fresh")
	if err := results.Save(context.Background(), key, []byte("y")); err != nil {
		t.Fatalf("save: %v", err)
	}
	removed, err := PurgeByAge(dir, time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := pages.LoadBody(context.Background(), "https://a.com/old"); err == nil {
		t.Fatalf("expected body removed with its metadata")
	}
	if _, ok, _ := results.Get(context.Background(), key); !ok {
		t.Fatalf("expected fresh result kept")
	}
}
