// Package readability extracts the main readable content of an HTML page:
// title, byline, body and metadata, without navigation, ads and other
// boilerplate. It works on a tree parsed with golang.org/x/net/html and does
// no I/O.
package readability

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Article is the result of a successful extraction.
type Article struct {
	Title         string
	Byline        string
	Dir           string
	Lang          string
	Content       string
	TextContent   string
	Length        int
	Excerpt       string
	SiteName      string
	PublishedTime string
	// Node is the finalized, detached article container. The caller owns it.
	Node *html.Node
}

// Parser runs the extraction with a fixed set of options. A Parser is
// immutable and may be shared between goroutines.
type Parser struct {
	opts Options
	log  zerolog.Logger
}

// NewParser returns a Parser with defaults filled in for unset options.
func NewParser(opts Options) *Parser {
	p := &Parser{opts: opts.withDefaults(), log: zerolog.Nop()}
	if opts.Logger != nil {
		p.log = *opts.Logger
	}
	return p
}

// Extract is a convenience wrapper around NewParser(opts).Parse.
func Extract(doc *html.Node, pageURL *url.URL, opts Options) (*Article, error) {
	return NewParser(opts).Parse(doc, pageURL)
}

// Parse extracts the article from doc. pageURL, when set, is used to resolve
// relative links. doc itself is not modified.
//
// A nil Article with a nil error means no attempt produced any text.
func (p *Parser) Parse(doc *html.Node, pageURL *url.URL) (*Article, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if p.opts.MaxElemsToParse > 0 {
		if n := countElements(doc); n > p.opts.MaxElemsToParse {
			return nil, fmt.Errorf("%w: %d elements (limit %d)", ErrTooManyElements, n, p.opts.MaxElemsToParse)
		}
	}

	s := &session{
		opts:    p.opts,
		log:     p.log,
		doc:     cloneNode(doc),
		pageURL: pageURL,
	}
	return s.run(), nil
}

// session is the state of one Parse call.
type session struct {
	opts    Options
	log     zerolog.Logger
	doc     *html.Node
	pageURL *url.URL

	articleTitle string
	metadata     Metadata
}

func (s *session) run() *Article {
	s.unwrapNoscriptImages()

	var jsonLD Metadata
	if !s.opts.DisableJSONLD {
		jsonLD = s.jsonLDMetadata()
	}

	s.removeScripts()
	s.prepDocument()

	s.metadata = s.articleMetadata(jsonLD)
	s.articleTitle = s.metadata.Title

	res := s.grabArticle()
	if res == nil {
		s.log.Debug().Msg("no content found in any attempt")
		return nil
	}

	s.postProcessContent(res.content)

	excerpt := s.metadata.Excerpt
	if excerpt == "" {
		for _, para := range elementsByTag(res.content, "p") {
			if text := strings.TrimSpace(textContent(para)); text != "" {
				excerpt = text
				break
			}
		}
	}

	byline := s.metadata.Byline
	if byline == "" {
		byline = res.byline
	}

	text := strings.Join(strings.Fields(textContent(res.content)), " ")
	return &Article{
		Title:         s.articleTitle,
		Byline:        byline,
		Dir:           res.dir,
		Lang:          s.documentLang(),
		Content:       s.opts.Serializer(res.content),
		TextContent:   text,
		Length:        charCount(text),
		Excerpt:       excerpt,
		SiteName:      s.metadata.SiteName,
		PublishedTime: s.metadata.PublishedTime,
		Node:          res.content,
	}
}

func (s *session) documentElement() *html.Node {
	for c := s.doc.FirstChild; c != nil; c = c.NextSibling {
		if isTag(c, "html") {
			return c
		}
	}
	if s.doc.Type == html.ElementNode {
		return s.doc
	}
	return nil
}

func (s *session) body() *html.Node {
	return firstByTag(s.doc, "body")
}

func (s *session) documentLang() string {
	if root := s.documentElement(); root != nil {
		return strings.TrimSpace(getAttr(root, "lang"))
	}
	return ""
}
