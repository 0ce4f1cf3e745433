package extract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
	"github.com/araddon/dateparse"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// DecodeHTML converts body to UTF-8 using the Content-Type header, a BOM or
// a <meta charset> declaration, in that order of preference. It returns the
// decoded bytes and the name of the detected encoding.
func DecodeHTML(body []byte, contentType string) ([]byte, string, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body, name, nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, name, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, name, nil
}

// ToMarkdown converts an HTML fragment to Markdown.
func ToMarkdown(fragment string) (string, error) {
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Links lists the anchors with an href below n in document order. Anchors
// without visible text use the URL as their text.
func Links(n *html.Node) []Link {
	if n == nil {
		return nil
	}
	var links []Link
	goquery.NewDocumentFromNode(n).Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		text := collapseSpaces(strings.TrimSpace(sel.Text()))
		if text == "" {
			text = href
		}
		links = append(links, Link{Text: text, URL: href})
	})
	return links
}

// DetectLanguage guesses the ISO 639-1 code of text. It returns "" when the
// guess is not reliable.
func DetectLanguage(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	info := whatlanggo.Detect(trimmed)
	if !info.IsReliable() {
		return ""
	}
	lang := info.Lang.Iso6391()
	if lang == "" {
		lang = whatlanggo.LangToString(info.Lang)
	}
	return strings.TrimSpace(lang)
}

// ParsePublished parses a published-time value in any of the common date
// layouts found in page metadata.
func ParsePublished(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
