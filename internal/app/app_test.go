package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperifyio/goreadable/internal/fetch"
	"github.com/hyperifyio/goreadable/internal/readability"
)

const sampleParagraph = "The lighthouse keeper climbed the spiral stairs every evening, trimming the wick and polishing the great lens until it shone, while the sea below turned from grey to black. "

func samplePage() string {
	var b strings.Builder
	b.WriteString(`<!doctype html><html lang="en"><head><title>The Last Lighthouse Keeper</title>`)
	b.WriteString(`<meta name="author" content="Ada Winters">`)
	b.WriteString(`</head><body><header><nav><a href="/">Home</a></nav></header><main><article>`)
	for i := 0; i < 4; i++ {
		b.WriteString("<p>")
		b.WriteString(strings.Repeat(sampleParagraph, 2))
		b.WriteString("</p>")
	}
	b.WriteString(`<p>See also <a href="/keepers">other keepers</a>, stories, and letters from the coast.</p>`)
	b.WriteString(`</article></main><footer>All rights reserved</footer></body></html>`)
	return b.String()
}

func writeSample(t *testing.T, markup string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(p, []byte(markup), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return p
}

func testConfig(input string, format string) Config {
	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.Format = format
	return cfg
}

func runToBuffer(t *testing.T, cfg Config) (string, error) {
	t.Helper()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	var out bytes.Buffer
	a.Stdout = &out
	err = a.Run(context.Background())
	return out.String(), err
}

func TestRun_HTMLFromFile(t *testing.T) {
	out, err := runToBuffer(t, testConfig(writeSample(t, samplePage()), FormatHTML))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "<title>The Last Lighthouse Keeper</title>") {
		t.Fatalf("expected title in output:\n%s", out)
	}
	if !strings.Contains(out, `<p class="byline">Ada Winters</p>`) {
		t.Fatalf("expected byline in output:\n%s", out)
	}
	if !strings.Contains(out, "polishing the great lens") || strings.Contains(out, "All rights reserved") {
		t.Fatalf("expected article content only:\n%s", out)
	}
}

func TestRun_MarkdownWithFooterFromStdin(t *testing.T) {
	cfg := testConfig("-", FormatMarkdown)
	cfg.Footer = true
	cfg.BaseURL = "https://coast.example/stories/lighthouse"
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	var out bytes.Buffer
	a.Stdin = strings.NewReader(samplePage())
	a.Stdout = &out
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "# The Last Lighthouse Keeper\n\n*Ada Winters*\n\n") {
		t.Fatalf("unexpected markdown header:\n%s", got)
	}
	if !strings.Contains(got, "(https://coast.example/keepers)") {
		t.Fatalf("expected link resolved against base URL:\n%s", got)
	}
	if !strings.Contains(got, "Source: stdin; extractor=readability") {
		t.Fatalf("expected footer:\n%s", got)
	}
}

func TestRun_JSON(t *testing.T) {
	out, err := runToBuffer(t, testConfig(writeSample(t, samplePage()), FormatJSON))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got articleJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Title != "The Last Lighthouse Keeper" || got.Byline != "Ada Winters" || got.Lang != "en" {
		t.Fatalf("unexpected metadata %+v", got)
	}
	if got.SHA256 != computeSHA256Hex(strings.TrimSpace(got.Text)) || got.Length == 0 {
		t.Fatalf("expected digest and length to match text")
	}
}

func TestRun_NoContent(t *testing.T) {
	input := writeSample(t, `<html><head><title>Nothing</title></head><body><div hidden>gone</div></body></html>`)
	_, err := runToBuffer(t, testConfig(input, FormatText))
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestRun_FallbackExtractor(t *testing.T) {
	input := writeSample(t, `<html><head><title>Tiny</title></head><body><main><div hidden>Only hidden text here</div></main></body></html>`)
	cfg := testConfig(input, FormatText)
	if _, err := runToBuffer(t, cfg); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent without fallback, got %v", err)
	}
	cfg.Fallback = true
	cfg.Footer = true
	out, err := runToBuffer(t, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Only hidden text here") || !strings.Contains(out, "extractor=heuristic") {
		t.Fatalf("expected heuristic extraction:\n%s", out)
	}
}

func TestRun_OutputDirectoryAndPDF(t *testing.T) {
	dir := t.TempDir() + string(filepath.Separator)
	cfg := testConfig(writeSample(t, samplePage()), FormatPDF)
	cfg.OutputPath = dir
	if _, err := runToBuffer(t, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "the-last-lighthouse-keeper-") || !strings.HasSuffix(entries[0].Name(), ".pdf") {
		t.Fatalf("unexpected output entries %v", entries)
	}
	b, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("expected a PDF file")
	}
}

func TestRun_URLWithCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(samplePage()))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.URL = srv.URL + "/story"
	cfg.Format = FormatText
	cfg.Footer = true
	cfg.CacheDir = cacheDir

	first, err := runToBuffer(t, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !strings.Contains(first, "page_cache=false") {
		t.Fatalf("expected fresh fetch on first run:\n%s", first)
	}
	second, err := runToBuffer(t, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(second, "page_cache=true") {
		t.Fatalf("expected revalidated cached page on second run:\n%s", second)
	}
	if strings.TrimSuffix(first, "page_cache=false\n") != strings.TrimSuffix(second, "page_cache=true\n") {
		t.Fatalf("expected identical article text from cached result")
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected one request per run, got %d", hits)
	}
	results, err := os.ReadDir(filepath.Join(cacheDir, "results"))
	if err != nil || len(results) != 1 {
		t.Fatalf("expected one cached result, got %v (%v)", results, err)
	}
}

func TestRun_CacheRefreshFetchesUnconditionally(t *testing.T) {
	var conditional int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			atomic.AddInt32(&conditional, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(samplePage()))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL + "/story"
	cfg.Format = FormatText
	cfg.Footer = true
	cfg.CacheDir = t.TempDir()
	cfg.CacheRefresh = true

	for i := 0; i < 2; i++ {
		out, err := runToBuffer(t, cfg)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !strings.Contains(out, "page_cache=false") {
			t.Fatalf("expected fresh fetch on run %d:\n%s", i, out)
		}
	}
	if n := atomic.LoadInt32(&conditional); n != 0 {
		t.Fatalf("expected no conditional requests, got %d", n)
	}
}

func TestRun_ElementLimitNotServedFromResultCache(t *testing.T) {
	cfg := testConfig(writeSample(t, samplePage()), FormatText)
	cfg.CacheDir = t.TempDir()

	if _, err := runToBuffer(t, cfg); err != nil {
		t.Fatalf("unlimited run: %v", err)
	}
	cfg.MaxElemsToParse = 3
	if _, err := runToBuffer(t, cfg); !errors.Is(err, readability.ErrTooManyElements) {
		t.Fatalf("expected ErrTooManyElements despite cached result, got %v", err)
	}
}

func TestRun_RespectRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /members\n"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage()))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Format = FormatText
	cfg.RespectRobots = true
	cfg.URL = srv.URL + "/members/story"
	if _, err := runToBuffer(t, cfg); !errors.Is(err, fetch.ErrDisallowed) {
		t.Fatalf("expected ErrDisallowed, got %v", err)
	}
	cfg.URL = srv.URL + "/story"
	if out, err := runToBuffer(t, cfg); err != nil || !strings.Contains(out, "polishing the great lens") {
		t.Fatalf("expected allowed page to be extracted, err=%v", err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("page.html", "docx")
	if _, err := New(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
