package app

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hyperifyio/goreadable/internal/extract"
)

// articleJSON is the machine-readable form of an extracted article.
type articleJSON struct {
	Source    string     `json:"source"`
	Title     string     `json:"title"`
	Byline    string     `json:"byline,omitempty"`
	Excerpt   string     `json:"excerpt,omitempty"`
	SiteName  string     `json:"site_name,omitempty"`
	Lang      string     `json:"lang,omitempty"`
	Dir       string     `json:"dir,omitempty"`
	Published *time.Time `json:"published,omitempty"`
	// PublishedRaw is kept when the value could not be parsed.
	PublishedRaw string     `json:"published_raw,omitempty"`
	Length       int        `json:"length"`
	Content      string     `json:"content"`
	Text         string     `json:"text"`
	Links        []linkJSON `json:"links,omitempty"`
	Extractor    string     `json:"extractor"`
	SHA256       string     `json:"sha256"`
}

type linkJSON struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func buildArticleJSON(doc extract.Document, source string) articleJSON {
	out := articleJSON{
		Source:    source,
		Title:     doc.Title,
		Byline:    doc.Byline,
		Excerpt:   doc.Excerpt,
		SiteName:  doc.SiteName,
		Lang:      doc.Lang,
		Dir:       doc.Dir,
		Length:    doc.Length,
		Content:   doc.HTML,
		Text:      doc.Text,
		Extractor: doc.Extractor,
		SHA256:    computeSHA256Hex(strings.TrimSpace(doc.Text)),
	}
	if !doc.Published.IsZero() {
		t := doc.Published.UTC()
		out.Published = &t
	} else {
		out.PublishedRaw = doc.PublishedRaw
	}
	for _, l := range doc.Links {
		out.Links = append(out.Links, linkJSON{Text: l.Text, URL: l.URL})
	}
	return out
}

// renderInput is everything a renderer needs besides the format.
type renderInput struct {
	doc       extract.Document
	source    string
	footer    bool
	fromCache bool
}

// render produces the output bytes for one of the supported formats.
func render(in renderInput, format string) ([]byte, error) {
	switch format {
	case FormatHTML:
		return []byte(renderHTML(in.doc)), nil
	case FormatText:
		return []byte(in.withFooter(renderText(in.doc))), nil
	case FormatMarkdown:
		md, err := renderMarkdown(in.doc)
		if err != nil {
			return nil, err
		}
		return []byte(in.withFooter(md)), nil
	case FormatJSON:
		b, err := json.MarshalIndent(buildArticleJSON(in.doc, in.source), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(b, '\n'), nil
	case FormatPDF:
		md, err := renderMarkdown(in.doc)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := writeSimplePDF(in.withFooter(md), in.doc.Title, &buf); err != nil {
			return nil, fmt.Errorf("write pdf: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func (in renderInput) withFooter(s string) string {
	if !in.footer {
		return s
	}
	return appendSourceFooter(s, in.source, in.doc.Extractor, in.doc.Length, in.fromCache)
}

func renderHTML(doc extract.Document) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html")
	if doc.Lang != "" {
		b.WriteString(` lang="` + html.EscapeString(doc.Lang) + `"`)
	}
	if doc.Dir != "" {
		b.WriteString(` dir="` + html.EscapeString(doc.Dir) + `"`)
	}
	b.WriteString(">\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(doc.Title))
	b.WriteString("</title>\n")
	if doc.Byline != "" {
		b.WriteString(`<meta name="author" content="` + html.EscapeString(doc.Byline) + "\">\n")
	}
	if doc.Excerpt != "" {
		b.WriteString(`<meta name="description" content="` + html.EscapeString(doc.Excerpt) + "\">\n")
	}
	b.WriteString("</head>\n<body>\n<article>\n")
	if doc.Title != "" {
		b.WriteString("<h1>" + html.EscapeString(doc.Title) + "</h1>\n")
	}
	if doc.Byline != "" {
		b.WriteString(`<p class="byline">` + html.EscapeString(doc.Byline) + "</p>\n")
	}
	b.WriteString(doc.HTML)
	b.WriteString("\n</article>\n</body>\n</html>\n")
	return b.String()
}

func renderText(doc extract.Document) string {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	if doc.Byline != "" {
		b.WriteString(doc.Byline)
		b.WriteString("\n\n")
	}
	b.WriteString(doc.Text)
	b.WriteString("\n")
	return b.String()
}

func renderMarkdown(doc extract.Document) (string, error) {
	body, err := extract.ToMarkdown(doc.HTML)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString("# ")
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	if doc.Byline != "" {
		b.WriteString("*")
		b.WriteString(doc.Byline)
		b.WriteString("*\n\n")
	}
	b.WriteString(body)
	b.WriteString("\n")
	return b.String(), nil
}
