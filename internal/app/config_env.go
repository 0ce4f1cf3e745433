package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvOverrides.
const EnvPrefix = "GOREADABLE_"

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

// ApplyEnvOverrides overrides cfg fields with environment variables when the
// corresponding env vars are set. Env takes precedence over values coming from
// a config file; flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.URL, "URL")
	setString(&cfg.InputPath, "INPUT")
	setString(&cfg.BaseURL, "BASE_URL")
	setString(&cfg.OutputPath, "OUTPUT")
	setString(&cfg.Format, "FORMAT")
	setString(&cfg.UserAgent, "USER_AGENT")
	setString(&cfg.CacheDir, "CACHE_DIR")

	setInt := func(dst *int, key string) {
		if n, err := strconv.Atoi(getenv(key)); err == nil && n >= 0 {
			*dst = n
		}
	}
	setInt(&cfg.CharThreshold, "CHAR_THRESHOLD")
	setInt(&cfg.NbTopCandidates, "TOP_CANDIDATES")
	setInt(&cfg.MaxElemsToParse, "MAX_ELEMS")
	setInt(&cfg.MaxAttempts, "MAX_ATTEMPTS")
	setInt(&cfg.CacheMaxEntries, "CACHE_MAX_ENTRIES")

	setInt64 := func(dst *int64, key string) {
		if n, err := strconv.ParseInt(getenv(key), 10, 64); err == nil && n >= 0 {
			*dst = n
		}
	}
	setInt64(&cfg.MaxBodyBytes, "MAX_BODY_BYTES")
	setInt64(&cfg.CacheMaxBytes, "CACHE_MAX_BYTES")

	if v := getenv("LINK_DENSITY_MODIFIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LinkDensityModifier = f
		}
	}
	if v := getenv("PRESERVE_CLASSES"); v != "" {
		cfg.ClassesToPreserve = splitList(v)
	}

	setDuration := func(dst *time.Duration, key string) {
		if s := getenv(key); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.Timeout, "TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(getenv(key)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.KeepClasses, "KEEP_CLASSES")
	setBool(&cfg.DisableJSONLD, "DISABLE_JSONLD")
	setBool(&cfg.Sanitize, "SANITIZE")
	setBool(&cfg.DetectLanguage, "DETECT_LANG")
	setBool(&cfg.Fallback, "FALLBACK")
	setBool(&cfg.Footer, "FOOTER")
	setBool(&cfg.SSLVerify, "SSL_VERIFY")
	setBool(&cfg.RespectRobots, "ROBOTS")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.CacheRefresh, "CACHE_REFRESH")
	setBool(&cfg.Verbose, "VERBOSE")
}

// splitList splits a comma-separated list and drops empty items.
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
