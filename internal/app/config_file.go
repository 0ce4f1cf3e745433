package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every ValidateConfig failure.
var ErrInvalidConfig = errors.New("invalid config")

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
	URL     string `yaml:"url" json:"url"`
	Input   string `yaml:"input" json:"input"`
	BaseURL string `yaml:"baseURL" json:"baseURL"`
	Output  string `yaml:"output" json:"output"`
	Format  string `yaml:"format" json:"format"`

	Readability struct {
		CharThreshold       int      `yaml:"charThreshold" json:"charThreshold"`
		TopCandidates       int      `yaml:"topCandidates" json:"topCandidates"`
		MaxElems            int      `yaml:"maxElems" json:"maxElems"`
		KeepClasses         bool     `yaml:"keepClasses" json:"keepClasses"`
		PreserveClasses     []string `yaml:"preserveClasses" json:"preserveClasses"`
		DisableJSONLD       bool     `yaml:"disableJSONLD" json:"disableJSONLD"`
		LinkDensityModifier float64  `yaml:"linkDensityModifier" json:"linkDensityModifier"`
	} `yaml:"readability" json:"readability"`

	Sanitize       bool `yaml:"sanitize" json:"sanitize"`
	DetectLanguage bool `yaml:"detectLang" json:"detectLang"`
	Fallback       bool `yaml:"fallback" json:"fallback"`
	Footer         bool `yaml:"footer" json:"footer"`
	Verbose        bool `yaml:"verbose" json:"verbose"`

	Fetch struct {
		UserAgent    string        `yaml:"ua" json:"ua"`
		Timeout      time.Duration `yaml:"timeout" json:"timeout"`
		MaxAttempts  int           `yaml:"maxAttempts" json:"maxAttempts"`
		MaxBodyBytes int64         `yaml:"maxBodyBytes" json:"maxBodyBytes"`
		SSLVerify    *bool         `yaml:"sslVerify" json:"sslVerify"`
		Robots       bool          `yaml:"robots" json:"robots"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		Refresh     bool          `yaml:"refresh" json:"refresh"`
	} `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs before env
// overrides and flags, so the file only replaces defaults.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString(&cfg.URL, fc.URL)
	setString(&cfg.InputPath, fc.Input)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.OutputPath, fc.Output)
	setString(&cfg.Format, fc.Format)
	setString(&cfg.UserAgent, fc.Fetch.UserAgent)
	setString(&cfg.CacheDir, fc.Cache.Dir)

	r := fc.Readability
	if r.CharThreshold > 0 {
		cfg.CharThreshold = r.CharThreshold
	}
	if r.TopCandidates > 0 {
		cfg.NbTopCandidates = r.TopCandidates
	}
	if r.MaxElems > 0 {
		cfg.MaxElemsToParse = r.MaxElems
	}
	if len(r.PreserveClasses) > 0 {
		cfg.ClassesToPreserve = append([]string{}, r.PreserveClasses...)
	}
	if r.LinkDensityModifier != 0 {
		cfg.LinkDensityModifier = r.LinkDensityModifier
	}
	cfg.KeepClasses = cfg.KeepClasses || r.KeepClasses
	cfg.DisableJSONLD = cfg.DisableJSONLD || r.DisableJSONLD

	cfg.Sanitize = cfg.Sanitize || fc.Sanitize
	cfg.DetectLanguage = cfg.DetectLanguage || fc.DetectLanguage
	cfg.Fallback = cfg.Fallback || fc.Fallback
	cfg.Footer = cfg.Footer || fc.Footer
	cfg.Verbose = cfg.Verbose || fc.Verbose

	if fc.Fetch.Timeout > 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	if fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	if fc.Fetch.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = fc.Fetch.MaxBodyBytes
	}
	// SSL verification defaults on; only an explicit false disables it
	if fc.Fetch.SSLVerify != nil {
		cfg.SSLVerify = *fc.Fetch.SSLVerify
	}
	cfg.RespectRobots = cfg.RespectRobots || fc.Fetch.Robots

	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.CacheStrictPerms = cfg.CacheStrictPerms || fc.Cache.StrictPerms
	cfg.CacheRefresh = cfg.CacheRefresh || fc.Cache.Refresh
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.URL) == "" && strings.TrimSpace(cfg.InputPath) == "" {
		return fmt.Errorf("%w: either url or input is required", ErrInvalidConfig)
	}
	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: url must be an absolute http(s) URL: %q", ErrInvalidConfig, cfg.URL)
		}
	}
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || !u.IsAbs() {
			return fmt.Errorf("%w: base URL must be absolute: %q", ErrInvalidConfig, cfg.BaseURL)
		}
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfig)
	}
	if !isKnownFormat(cfg.Format) {
		return fmt.Errorf("%w: unknown format %q (want one of %s)", ErrInvalidConfig, cfg.Format, strings.Join(Formats, ", "))
	}
	if cfg.Format == FormatPDF && cfg.OutputPath == "-" {
		return fmt.Errorf("%w: pdf output needs a file path", ErrInvalidConfig)
	}
	if cfg.CharThreshold < 0 || cfg.NbTopCandidates < 0 || cfg.MaxElemsToParse < 0 || cfg.MaxBodyBytes < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxEntries < 0 {
		return fmt.Errorf("%w: negative limits are not allowed", ErrInvalidConfig)
	}
	return nil
}

func isKnownFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}
