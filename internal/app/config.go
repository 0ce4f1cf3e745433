package app

import (
	"time"

	"github.com/hyperifyio/goreadable/internal/readability"
)

// Output formats.
const (
	FormatHTML     = "html"
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatPDF      = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatHTML, FormatText, FormatMarkdown, FormatJSON, FormatPDF}

// Config holds runtime configuration for the application.
type Config struct {
	// URL to fetch. Takes precedence over InputPath.
	URL string
	// InputPath is a local HTML file, or "-" for stdin.
	InputPath string
	// BaseURL resolves relative links of local input. Ignored for URL input,
	// which uses the URL after redirects.
	BaseURL string
	// OutputPath is a file, a directory (trailing slash or existing), or "-"
	// for stdout.
	OutputPath string
	Format     string

	// Engine
	CharThreshold       int
	NbTopCandidates     int
	MaxElemsToParse     int
	KeepClasses         bool
	ClassesToPreserve   []string
	DisableJSONLD       bool
	LinkDensityModifier float64

	// Post-processing
	Sanitize       bool
	DetectLanguage bool
	// Fallback switches to the heuristic extractor when no article is found.
	Fallback bool
	Footer   bool

	// Fetching
	UserAgent    string
	Timeout      time.Duration
	MaxAttempts  int
	MaxBodyBytes int64
	SSLVerify    bool

	// RespectRobots checks the host's robots.txt before fetching.
	RespectRobots bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxBytes    int64
	CacheMaxEntries  int
	CacheClear       bool
	CacheStrictPerms bool
	// CacheRefresh refetches pages without revalidation but still stores them.
	CacheRefresh bool

	Verbose bool
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		InputPath:       "-",
		OutputPath:      "-",
		Format:          FormatHTML,
		CharThreshold:   readability.DefaultCharThreshold,
		NbTopCandidates: readability.DefaultNTopCandidates,
		UserAgent:       "goreadable/" + BuildVersion + " (+https://github.com/hyperifyio/goreadable)",
		Timeout:         20 * time.Second,
		MaxAttempts:     2,
		MaxBodyBytes:    16 << 20,
		SSLVerify:       true,
	}
}

// ReadabilityOptions maps the engine settings of cfg onto readability.Options.
func (cfg Config) ReadabilityOptions() readability.Options {
	opts := readability.Options{
		MaxElemsToParse:     cfg.MaxElemsToParse,
		NbTopCandidates:     cfg.NbTopCandidates,
		CharThreshold:       cfg.CharThreshold,
		KeepClasses:         cfg.KeepClasses,
		DisableJSONLD:       cfg.DisableJSONLD,
		LinkDensityModifier: cfg.LinkDensityModifier,
	}
	if len(cfg.ClassesToPreserve) > 0 {
		opts.ClassesToPreserve = append([]string{}, cfg.ClassesToPreserve...)
	}
	return opts
}
