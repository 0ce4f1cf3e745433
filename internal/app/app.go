package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreadable/internal/cache"
	"github.com/hyperifyio/goreadable/internal/extract"
	"github.com/hyperifyio/goreadable/internal/fetch"
	"github.com/hyperifyio/goreadable/internal/robots"
)

// ErrNoContent is returned when no readable content could be extracted. The
// CLI maps it to exit code 2.
var ErrNoContent = extract.ErrNoContent

type App struct {
	cfg       Config
	pages     *cache.PageCache
	results   *cache.ResultCache
	fetcher   pageGetter
	extractor extract.Extractor

	// Stdin and Stdout back the "-" input and output paths.
	Stdin  io.Reader
	Stdout io.Writer
}

// pageGetter abstracts the fetch client for tests.
type pageGetter interface {
	Get(ctx context.Context, url string) (fetch.Page, error)
}

func New(_ context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, Stdin: os.Stdin, Stdout: os.Stdout}

	if cfg.CacheDir != "" {
		// Apply cache invalidation controls
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			// Ignore errors to avoid failing startup
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged expired cache entries")
			}
		}
		a.pages = &cache.PageCache{Dir: filepath.Join(cfg.CacheDir, "pages"), StrictPerms: cfg.CacheStrictPerms}
		a.results = &cache.ResultCache{Dir: filepath.Join(cfg.CacheDir, "results"), StrictPerms: cfg.CacheStrictPerms}
	}

	httpClient := newHTTPClient(cfg.SSLVerify)
	client := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.Timeout,
		Cache:             a.pages,
		BypassCache:       cfg.CacheRefresh,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		RedirectMaxHops:   5,
		Logger:            &log.Logger,
	}
	if cfg.RespectRobots {
		client.Robots = &robots.Checker{
			HTTPClient: httpClient,
			Cache:      a.pages,
			UserAgent:  cfg.UserAgent,
			Logger:     &log.Logger,
		}
	}
	a.fetcher = client

	opts := cfg.ReadabilityOptions()
	opts.Logger = &log.Logger
	ex := extract.ReadabilityExtractor{
		Options:        opts,
		Sanitize:       cfg.Sanitize,
		DetectLanguage: cfg.DetectLanguage,
		Logger:         &log.Logger,
	}
	if cfg.Fallback {
		ex.Fallback = extract.HeuristicExtractor{}
	}
	a.extractor = ex
	return a, nil
}

func (a *App) Close() {
	if a.cfg.CacheDir == "" || (a.cfg.CacheMaxBytes <= 0 && a.cfg.CacheMaxEntries <= 0) {
		return
	}
	for _, dir := range []string{a.pages.Dir, a.results.Dir} {
		if n, err := cache.EnforceLimits(dir, a.cfg.CacheMaxBytes, a.cfg.CacheMaxEntries); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Str("dir", dir).Msg("evicted cache entries")
		}
	}
}

// Run loads the page, extracts the article and writes it in the configured
// format.
func (a *App) Run(ctx context.Context) error {
	src, label, fromCache, err := a.load(ctx)
	if err != nil {
		return err
	}

	doc, err := a.extract(ctx, src)
	if err != nil {
		if errors.Is(err, extract.ErrNoContent) {
			log.Warn().Str("source", label).Msg("no readable content found")
			return fmt.Errorf("%s: %w", label, ErrNoContent)
		}
		return fmt.Errorf("extract: %w", err)
	}
	log.Info().Str("source", label).Str("title", doc.Title).Int("length", doc.Length).Str("extractor", doc.Extractor).Msg("extracted article")

	out, err := render(renderInput{doc: doc, source: label, footer: a.cfg.Footer, fromCache: fromCache}, a.cfg.Format)
	if err != nil {
		return err
	}
	return a.write(out, label, doc.Title)
}

// extract runs the extractor, going through the result cache when one is
// configured.
func (a *App) extract(ctx context.Context, src extract.Source) (extract.Document, error) {
	if a.results == nil {
		return a.extractor.Extract(src)
	}
	key := a.resultKey(src.Body)
	if b, ok, _ := a.results.Get(ctx, key); ok {
		var doc extract.Document
		if err := json.Unmarshal(b, &doc); err == nil {
			log.Debug().Msg("using cached extraction result")
			return doc, nil
		}
	}
	doc, err := a.extractor.Extract(src)
	if err != nil {
		return doc, err
	}
	if b, err := json.Marshal(doc); err == nil {
		if err := a.results.Save(ctx, key, b); err != nil {
			log.Warn().Err(err).Msg("result cache save failed")
		}
	}
	return doc, nil
}

// load returns the page source, a label naming where it came from and
// whether the body was served from the page cache.
func (a *App) load(ctx context.Context) (extract.Source, string, bool, error) {
	if a.cfg.URL != "" {
		page, err := a.fetcher.Get(ctx, a.cfg.URL)
		if err != nil {
			return extract.Source{}, "", false, fmt.Errorf("fetch %s: %w", a.cfg.URL, err)
		}
		base := page.FinalURL
		if base == nil {
			base, _ = url.Parse(a.cfg.URL)
		}
		return extract.Source{Body: page.Body, ContentType: page.ContentType, URL: base}, base.String(), page.FromCache, nil
	}

	var (
		body  []byte
		err   error
		label = a.cfg.InputPath
	)
	if a.cfg.InputPath == "-" {
		label = "stdin"
		body, err = io.ReadAll(a.Stdin)
	} else {
		body, err = os.ReadFile(a.cfg.InputPath)
	}
	if err != nil {
		return extract.Source{}, "", false, fmt.Errorf("read input: %w", err)
	}
	src := extract.Source{Body: body}
	if a.cfg.BaseURL != "" {
		u, err := url.Parse(a.cfg.BaseURL)
		if err != nil {
			return extract.Source{}, "", false, fmt.Errorf("base url: %w", err)
		}
		src.URL = u
	}
	return src, label, false, nil
}

// resultKey identifies an extraction result by input bytes and every setting
// that changes it.
func (a *App) resultKey(body []byte) string {
	c := a.cfg
	return cache.KeyFrom(
		computeSHA256Hex(string(body)),
		c.URL, c.BaseURL,
		strconv.Itoa(c.CharThreshold), strconv.Itoa(c.NbTopCandidates), strconv.Itoa(c.MaxElemsToParse),
		strconv.FormatBool(c.KeepClasses), strings.Join(c.ClassesToPreserve, ","),
		strconv.FormatBool(c.DisableJSONLD), strconv.FormatFloat(c.LinkDensityModifier, 'g', -1, 64),
		strconv.FormatBool(c.Sanitize), strconv.FormatBool(c.DetectLanguage),
		strconv.FormatBool(c.Fallback),
		BuildVersion,
	)
}

func (a *App) write(out []byte, source string, title string) error {
	if a.cfg.OutputPath == "-" {
		_, err := a.Stdout.Write(out)
		return err
	}
	path := resolveOutputPath(a.cfg.OutputPath, title, source, a.cfg.Format)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", path).Msg("wrote output")
	return nil
}
