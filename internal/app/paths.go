package app

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// resolveOutputPath maps a directory output to a stable file inside it. The
// filename uses a slugified title and a short hash of the source to ensure
// stability and avoid collisions. Files and "-" are returned unchanged.
func resolveOutputPath(out string, title string, source string, format string) string {
	out = strings.TrimSpace(out)
	if out == "-" {
		return out
	}
	isDir := strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator))
	if !isDir {
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			isDir = true
		}
	}
	if !isDir {
		return out
	}
	short := computeSHA256Hex(source)[:12]
	return filepath.Join(out, slugify(title)+"-"+short+"."+fileExtension(format))
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// Replace non-alphanumeric with hyphens
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	if s == "" {
		s = "article"
	}
	return s
}

func fileExtension(format string) string {
	switch format {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	default:
		return format
	}
}
