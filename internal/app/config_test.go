package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile_YAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "goreadable.yaml")
	content := `
url: https://news.example/a
format: json
readability:
  charThreshold: 300
  preserveClasses: [caption]
  disableJSONLD: true
fetch:
  timeout: 5s
  sslVerify: false
cache:
  dir: /tmp/goreadable-cache
  maxAge: 2h
  refresh: true
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.URL != "https://news.example/a" || cfg.Format != FormatJSON {
		t.Fatalf("unexpected url/format: %q %q", cfg.URL, cfg.Format)
	}
	if cfg.CharThreshold != 300 || !cfg.DisableJSONLD || len(cfg.ClassesToPreserve) != 1 {
		t.Fatalf("unexpected engine settings %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second || cfg.SSLVerify {
		t.Fatalf("unexpected fetch settings: %v %v", cfg.Timeout, cfg.SSLVerify)
	}
	if cfg.CacheDir != "/tmp/goreadable-cache" || cfg.CacheMaxAge != 2*time.Hour || !cfg.CacheRefresh {
		t.Fatalf("unexpected cache settings: %q %v %v", cfg.CacheDir, cfg.CacheMaxAge, cfg.CacheRefresh)
	}
	// Unset file values keep defaults
	if cfg.NbTopCandidates != 5 || cfg.OutputPath != "-" {
		t.Fatalf("expected defaults kept, got %d %q", cfg.NbTopCandidates, cfg.OutputPath)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "goreadable.json")
	if err := os.WriteFile(p, []byte(`{"input":"page.html","sanitize":true,"readability":{"topCandidates":3}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.InputPath != "page.html" || !cfg.Sanitize || cfg.NbTopCandidates != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestEnvOverridesFileConfig(t *testing.T) {
	t.Setenv("GOREADABLE_FORMAT", "text")
	var fc FileConfig
	fc.Format = FormatJSON
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	ApplyEnvOverrides(&cfg)
	if cfg.Format != FormatText {
		t.Fatalf("expected env to win over file, got %q", cfg.Format)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := DefaultConfig()
	if err := ValidateConfig(valid); err != nil {
		t.Fatalf("expected defaults valid, got %v", err)
	}
	cases := map[string]func(*Config){
		"relative url":  func(c *Config) { c.URL = "/news" },
		"ftp url":       func(c *Config) { c.URL = "ftp://example.com/x" },
		"no input":      func(c *Config) { c.InputPath = "" },
		"relative base": func(c *Config) { c.BaseURL = "stories/" },
		"format":        func(c *Config) { c.Format = "docx" },
		"pdf to stdout": func(c *Config) { c.Format = FormatPDF },
		"negative":      func(c *Config) { c.CharThreshold = -1 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := ValidateConfig(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestResolveOutputPath(t *testing.T) {
	if got := resolveOutputPath("-", "T", "s", FormatHTML); got != "-" {
		t.Fatalf("expected stdout passthrough, got %q", got)
	}
	if got := resolveOutputPath("out.html", "T", "s", FormatHTML); got != "out.html" {
		t.Fatalf("expected file passthrough, got %q", got)
	}
	dir := t.TempDir()
	got := resolveOutputPath(dir, "Hello, World!", "https://a.example/x", FormatMarkdown)
	want := filepath.Join(dir, "hello-world-"+computeSHA256Hex("https://a.example/x")[:12]+".md")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if slugify("  !!! ") != "article" {
		t.Fatalf("expected fallback slug")
	}
}
