package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goreadable/internal/readability"
)

// ErrNoContent is returned when no readable content could be found.
var ErrNoContent = errors.New("no readable content")

// Source is a fetched or loaded page.
type Source struct {
	Body []byte
	// ContentType is the HTTP Content-Type header, if known. It is used to
	// pick the character set.
	ContentType string
	URL         *url.URL
}

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap readability tactics without changing callers.
type Extractor interface {
	Extract(src Source) (Document, error)
}

// HeuristicExtractor uses FromHTML, which prefers <main>/<article> and
// applies light boilerplate reduction and normalization.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(src Source) (Document, error) {
	body, _, err := DecodeHTML(src.Body, src.ContentType)
	if err != nil {
		return Document{}, err
	}
	doc := FromHTML(body)
	if doc.Text == "" {
		return doc, ErrNoContent
	}
	return doc, nil
}

// ReadabilityExtractor runs the readability engine over the page.
type ReadabilityExtractor struct {
	Options readability.Options
	// Sanitize passes the article HTML through a UGC policy before it is
	// returned.
	Sanitize bool
	// DetectLanguage guesses the language from the text when the page does
	// not declare one.
	DetectLanguage bool
	// Fallback is used when the engine finds no content. Nil means
	// ErrNoContent is returned instead.
	Fallback Extractor
	Logger   *zerolog.Logger
}

func (e ReadabilityExtractor) logger() zerolog.Logger {
	if e.Logger != nil {
		return *e.Logger
	}
	return zerolog.Nop()
}

func (e ReadabilityExtractor) Extract(src Source) (Document, error) {
	log := e.logger()
	body, enc, err := DecodeHTML(src.Body, src.ContentType)
	if err != nil {
		return Document{}, err
	}
	if enc != "utf-8" {
		log.Debug().Str("charset", enc).Msg("decoded page")
	}
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	opts := e.Options
	if opts.Logger == nil {
		opts.Logger = e.Logger
	}
	article, err := readability.Extract(root, src.URL, opts)
	if err != nil {
		return Document{}, fmt.Errorf("readability: %w", err)
	}
	if article == nil {
		if e.Fallback != nil {
			log.Info().Msg("no article found; using fallback extractor")
			return e.Fallback.Extract(Source{Body: body, ContentType: "text/html; charset=utf-8", URL: src.URL})
		}
		return Document{}, ErrNoContent
	}

	doc := Document{
		Title:        article.Title,
		Byline:       article.Byline,
		Excerpt:      article.Excerpt,
		SiteName:     article.SiteName,
		Lang:         article.Lang,
		Dir:          article.Dir,
		Text:         textOf(article.Node),
		HTML:         article.Content,
		Length:       article.Length,
		Links:        Links(article.Node),
		PublishedRaw: article.PublishedTime,
		Extractor:    "readability",
	}
	if doc.PublishedRaw != "" {
		if t, ok := ParsePublished(doc.PublishedRaw); ok {
			doc.Published = t
		} else {
			log.Debug().Str("value", doc.PublishedRaw).Msg("unparseable published time")
		}
	}
	if doc.Lang == "" && e.DetectLanguage {
		doc.Lang = DetectLanguage(doc.Text)
	}
	if e.Sanitize {
		doc.HTML = sanitizePolicy.Sanitize(doc.HTML)
	}
	return doc, nil
}

var sanitizePolicy = bluemonday.UGCPolicy()
