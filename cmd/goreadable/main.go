package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreadable/internal/app"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitNoContent = 2
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(realMain(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// realMain parses args, builds the configuration and runs the app. It returns
// the process exit code.
func realMain(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("goreadable", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath      string
		envFiles        string
		urlStr          string
		inputPath       string
		baseURL         string
		outputPath      string
		format          string
		charThreshold   int
		topCandidates   int
		maxElems        int
		keepClasses     bool
		preserveClasses string
		disableJSONLD   bool
		linkDensityMod  float64
		sanitize        bool
		detectLang      bool
		fallback        bool
		footer          bool
		userAgent       string
		timeout         time.Duration
		maxBodyBytes    int64
		sslVerify       bool
		respectRobots   bool
		cacheDir        string
		cacheMaxAge     time.Duration
		cacheMaxBytes   int64
		cacheMaxEntries int
		cacheClear      bool
		cacheStrict     bool
		cacheRefresh    bool
		verbose         bool
		showVersion     bool
	)
	def := app.DefaultConfig()

	fs.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading GOREADABLE_* variables")
	fs.StringVar(&urlStr, "url", "", "URL of the page to extract")
	fs.StringVar(&inputPath, "input", def.InputPath, "Local HTML file, or - for stdin (ignored with -url)")
	fs.StringVar(&baseURL, "base-url", "", "Base URL for resolving relative links of local input")
	fs.StringVar(&outputPath, "output", def.OutputPath, "Output file, directory, or - for stdout")
	fs.StringVar(&format, "format", def.Format, "Output format: "+strings.Join(app.Formats, ", "))
	fs.IntVar(&charThreshold, "char-threshold", def.CharThreshold, "Minimum article length before heuristics are relaxed")
	fs.IntVar(&topCandidates, "top-candidates", def.NbTopCandidates, "Number of top candidates compared for a shared ancestor")
	fs.IntVar(&maxElems, "max-elems", 0, "Refuse documents with more elements than this (0 disables)")
	fs.BoolVar(&keepClasses, "keep-classes", false, "Keep class attributes in the output")
	fs.StringVar(&preserveClasses, "preserve-class", "", "Comma-separated classes kept when classes are stripped")
	fs.BoolVar(&disableJSONLD, "disable-jsonld", false, "Ignore JSON-LD metadata")
	fs.Float64Var(&linkDensityMod, "link-density-modifier", 0, "Added to the link density limits of conditional cleaning")
	fs.BoolVar(&sanitize, "sanitize", false, "Sanitize article HTML with a UGC policy")
	fs.BoolVar(&detectLang, "detect-lang", false, "Detect the language from text when the page does not declare one")
	fs.BoolVar(&fallback, "fallback", false, "Use the heuristic extractor when no article is found")
	fs.BoolVar(&footer, "footer", false, "Append a source footer to text, markdown and pdf output")
	fs.StringVar(&userAgent, "ua", def.UserAgent, "User-Agent for page fetches")
	fs.DurationVar(&timeout, "timeout", def.Timeout, "Per-request fetch timeout")
	fs.Int64Var(&maxBodyBytes, "max-body-bytes", def.MaxBodyBytes, "Maximum response size in bytes (0 disables)")
	fs.BoolVar(&sslVerify, "ssl-verify", def.SSLVerify, "Verify TLS certificates")
	fs.BoolVar(&respectRobots, "robots", false, "Check robots.txt before fetching -url")
	fs.StringVar(&cacheDir, "cache.dir", "", "Cache directory path (empty disables caching)")
	fs.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.Int64Var(&cacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used entries above this size; 0 disables")
	fs.IntVar(&cacheMaxEntries, "cache.maxEntries", 0, "Evict least recently used entries above this count; 0 disables")
	fs.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&cacheRefresh, "cache.refresh", false, "Fetch pages fresh without revalidation, still updating the cache")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}
	if showVersion {
		fmt.Fprintln(stdout, app.VersionString())
		return exitOK
	}
	// A single positional argument is taken as the URL or input path
	if fs.NArg() == 1 && urlStr == "" {
		if arg := fs.Arg(0); strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			urlStr = arg
		} else {
			inputPath = arg
		}
	} else if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "goreadable: too many arguments")
		return exitFailure
	}

	if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
		log.Error().Err(err).Msg("load env files failed")
		return exitFailure
	}

	// Precedence: flags > env > config file > defaults
	cfg := def
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config failed")
			return exitFailure
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	// Positional arguments count as explicitly set
	if fs.NArg() == 1 {
		set["url"] = urlStr != ""
		set["input"] = urlStr == ""
	}
	apply := func(name string, fn func()) {
		if set[name] {
			fn()
		}
	}
	apply("url", func() { cfg.URL = urlStr })
	apply("input", func() { cfg.InputPath = inputPath })
	apply("base-url", func() { cfg.BaseURL = baseURL })
	apply("output", func() { cfg.OutputPath = outputPath })
	apply("format", func() { cfg.Format = strings.ToLower(format) })
	apply("char-threshold", func() { cfg.CharThreshold = charThreshold })
	apply("top-candidates", func() { cfg.NbTopCandidates = topCandidates })
	apply("max-elems", func() { cfg.MaxElemsToParse = maxElems })
	apply("keep-classes", func() { cfg.KeepClasses = keepClasses })
	apply("preserve-class", func() { cfg.ClassesToPreserve = splitList(preserveClasses) })
	apply("disable-jsonld", func() { cfg.DisableJSONLD = disableJSONLD })
	apply("link-density-modifier", func() { cfg.LinkDensityModifier = linkDensityMod })
	apply("sanitize", func() { cfg.Sanitize = sanitize })
	apply("detect-lang", func() { cfg.DetectLanguage = detectLang })
	apply("fallback", func() { cfg.Fallback = fallback })
	apply("footer", func() { cfg.Footer = footer })
	apply("ua", func() { cfg.UserAgent = userAgent })
	apply("timeout", func() { cfg.Timeout = timeout })
	apply("max-body-bytes", func() { cfg.MaxBodyBytes = maxBodyBytes })
	apply("ssl-verify", func() { cfg.SSLVerify = sslVerify })
	apply("robots", func() { cfg.RespectRobots = respectRobots })
	apply("cache.dir", func() { cfg.CacheDir = cacheDir })
	apply("cache.maxAge", func() { cfg.CacheMaxAge = cacheMaxAge })
	apply("cache.maxBytes", func() { cfg.CacheMaxBytes = cacheMaxBytes })
	apply("cache.maxEntries", func() { cfg.CacheMaxEntries = cacheMaxEntries })
	apply("cache.clear", func() { cfg.CacheClear = cacheClear })
	apply("cache.strictPerms", func() { cfg.CacheStrictPerms = cacheStrict })
	apply("cache.refresh", func() { cfg.CacheRefresh = cacheRefresh })
	apply("v", func() { cfg.Verbose = verbose })

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(ctx, cfg, stdin, stdout); err != nil {
		// Exit code policy: 2 when the page has no readable content, 1 otherwise.
		if errors.Is(err, app.ErrNoContent) {
			log.Warn().Err(err).Msg("no content")
			return exitNoContent
		}
		log.Error().Err(err).Msg("run failed")
		return exitFailure
	}
	return exitOK
}

func run(ctx context.Context, cfg app.Config, stdin io.Reader, stdout io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	a.Stdin = stdin
	a.Stdout = stdout

	return a.Run(ctx)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}
