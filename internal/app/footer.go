package app

import (
	"strconv"
	"strings"
)

// appendSourceFooter appends a minimal, deterministic footer that records
// where the article came from and how it was extracted.
func appendSourceFooter(body string, source string, extractor string, length int, cached bool) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n\n---\n")
	b.WriteString("Source: ")
	b.WriteString(strings.TrimSpace(source))
	b.WriteString("; extractor=")
	b.WriteString(extractor)
	b.WriteString("; length=")
	b.WriteString(strconv.Itoa(length))
	b.WriteString("; page_cache=")
	b.WriteString(strconv.FormatBool(cached))
	b.WriteString("\n")
	return b.String()
}
