package readability

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

// Metadata is what the document says about itself through JSON-LD, meta
// tags and its title.
type Metadata struct {
	Title         string
	Byline        string
	Excerpt       string
	SiteName      string
	PublishedTime string
}

// jsonLDMetadata reads the first schema.org article object found in the
// document's ld+json scripts. Malformed blocks are skipped.
func (s *session) jsonLDMetadata() Metadata {
	for _, script := range elementsByTag(s.doc, "script") {
		if strings.TrimSpace(strings.ToLower(getAttr(script, "type"))) != "application/ld+json" {
			continue
		}
		content := rxCDATA.ReplaceAllString(textContent(script), "")
		var parsed any
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			s.log.Debug().Err(err).Msg("skipping malformed JSON-LD block")
			continue
		}
		article := findJSONLDArticle(parsed)
		if article == nil {
			continue
		}
		md := s.metadataFromJSONLD(article)
		if md.Title != "" || md.Byline != "" || md.Excerpt != "" {
			return md
		}
	}
	return Metadata{}
}

// findJSONLDArticle looks through arrays and @graph wrappers for the first
// object whose @type is article-like.
func findJSONLDArticle(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if found := findJSONLDArticle(item); found != nil {
				return found
			}
		}
	case map[string]any:
		if !schemaOrgContext(t["@context"]) {
			return nil
		}
		if isArticleType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"].([]any); ok {
			for _, item := range graph {
				obj, ok := item.(map[string]any)
				if ok && isArticleType(obj["@type"]) {
					return obj
				}
			}
		}
	}
	return nil
}

// schemaOrgContext accepts a missing context; a present one must point at
// schema.org either directly or through @vocab.
func schemaOrgContext(ctx any) bool {
	switch c := ctx.(type) {
	case nil:
		return true
	case string:
		return rxSchemaOrg.MatchString(c)
	case map[string]any:
		vocab, ok := c["@vocab"].(string)
		return ok && rxSchemaOrg.MatchString(vocab)
	case []any:
		for _, item := range c {
			if str, ok := item.(string); ok && rxSchemaOrg.MatchString(str) {
				return true
			}
		}
	}
	return false
}

func isArticleType(t any) bool {
	switch v := t.(type) {
	case string:
		return rxJSONLdArticleTypes.MatchString(v)
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok && rxJSONLdArticleTypes.MatchString(str) {
				return true
			}
		}
	}
	return false
}

func (s *session) metadataFromJSONLD(obj map[string]any) Metadata {
	var md Metadata
	name, hasName := obj["name"].(string)
	headline, hasHeadline := obj["headline"].(string)
	name = strings.TrimSpace(name)
	headline = strings.TrimSpace(headline)
	switch {
	case hasName && hasHeadline && name != headline:
		// Both present: the one closer to the HTML title wins, and headline
		// only when it is the closer one.
		title := s.articleTitleFromDocument()
		nameSim := textSimilarity(name, title)
		headlineSim := textSimilarity(headline, title)
		if headlineSim > 0.75 && headlineSim > nameSim {
			md.Title = headline
		} else {
			md.Title = name
		}
	case hasName && name != "":
		md.Title = name
	case hasHeadline:
		md.Title = headline
	}

	switch author := obj["author"].(type) {
	case map[string]any:
		if n, ok := author["name"].(string); ok {
			md.Byline = strings.TrimSpace(n)
		}
	case []any:
		var names []string
		for _, a := range author {
			if m, ok := a.(map[string]any); ok {
				if n, ok := m["name"].(string); ok && strings.TrimSpace(n) != "" {
					names = append(names, strings.TrimSpace(n))
				}
			}
		}
		md.Byline = strings.Join(names, ", ")
	case string:
		md.Byline = strings.TrimSpace(author)
	}

	if d, ok := obj["description"].(string); ok {
		md.Excerpt = strings.TrimSpace(d)
	}
	if pub, ok := obj["publisher"].(map[string]any); ok {
		if n, ok := pub["name"].(string); ok {
			md.SiteName = strings.TrimSpace(n)
		}
	}
	if d, ok := obj["datePublished"].(string); ok && strings.TrimSpace(d) != "" {
		md.PublishedTime = strings.TrimSpace(d)
	} else if d, ok := obj["dateCreated"].(string); ok {
		md.PublishedTime = strings.TrimSpace(d)
	}
	return md
}

// metaValues collects <meta> content keyed by normalized property or name.
func (s *session) metaValues() map[string]string {
	values := make(map[string]string)
	for _, meta := range elementsByTag(s.doc, "meta") {
		content := strings.TrimSpace(getAttr(meta, "content"))
		if content == "" {
			continue
		}
		matched := false
		if property := getAttr(meta, "property"); property != "" {
			for _, m := range rxMetaPropertyPattern.FindAllString(property, -1) {
				key := strings.Join(strings.Fields(strings.ToLower(m)), "")
				values[key] = content
				matched = true
			}
		}
		if matched {
			continue
		}
		if name := getAttr(meta, "name"); name != "" && rxMetaNamePattern.MatchString(name) {
			key := strings.Join(strings.Fields(strings.ToLower(name)), "")
			key = strings.ReplaceAll(key, ".", ":")
			values[key] = content
		}
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// articleMetadata merges JSON-LD with meta tags, JSON-LD first, and falls
// back to the cleaned document title.
func (s *session) articleMetadata(jsonLD Metadata) Metadata {
	values := s.metaValues()

	var md Metadata
	md.Title = firstNonEmpty(
		jsonLD.Title,
		values["og:title"],
		values["twitter:title"],
		values["dc:title"],
		values["dcterm:title"],
		values["weibo:article:title"],
		values["weibo:webpage:title"],
		values["title"],
		values["parsely-title"],
	)
	if md.Title == "" {
		md.Title = s.articleTitleFromDocument()
	}

	articleAuthor := values["article:author"]
	if isURL(articleAuthor) {
		articleAuthor = ""
	}
	md.Byline = firstNonEmpty(
		jsonLD.Byline,
		values["dc:creator"],
		values["dcterm:creator"],
		values["author"],
		values["parsely-author"],
		articleAuthor,
	)
	md.Excerpt = firstNonEmpty(
		jsonLD.Excerpt,
		values["dc:description"],
		values["dcterm:description"],
		values["og:description"],
		values["weibo:article:description"],
		values["weibo:webpage:description"],
		values["description"],
		values["twitter:description"],
	)
	md.SiteName = firstNonEmpty(jsonLD.SiteName, values["og:site_name"])
	md.PublishedTime = firstNonEmpty(
		jsonLD.PublishedTime,
		values["article:published_time"],
		values["parsely-pub-date"],
	)

	md.Title = unescapeHTMLEntities(md.Title)
	md.Byline = unescapeHTMLEntities(md.Byline)
	md.Excerpt = unescapeHTMLEntities(md.Excerpt)
	md.SiteName = unescapeHTMLEntities(md.SiteName)
	md.PublishedTime = unescapeHTMLEntities(md.PublishedTime)
	return md
}

// rawDocumentTitle is the <title> of the head, or the first <title> anywhere.
func (s *session) rawDocumentTitle() string {
	if head := firstByTag(s.doc, "head"); head != nil {
		if t := firstByTag(head, "title"); t != nil {
			if text := strings.TrimSpace(textContent(t)); text != "" {
				return text
			}
		}
	}
	if t := firstByTag(s.doc, "title"); t != nil {
		return innerText(t, true)
	}
	return ""
}

func (s *session) articleTitleFromDocument() string {
	return cleanTitle(s.rawDocumentTitle(), s.doc)
}

// cleanTitle strips site names and section prefixes from a document title.
func cleanTitle(origTitle string, doc *html.Node) string {
	origTitle = strings.TrimSpace(origTitle)
	curTitle := origTitle

	// Very long or very short titles are often wrong; a lone <h1> is a
	// better guess then.
	if n := charCount(curTitle); n > 150 || n < 15 {
		if hOnes := elementsByTag(doc, "h1"); len(hOnes) == 1 {
			h1 := innerText(hOnes[0], true)
			if l := charCount(h1); l < n && l > 10 {
				curTitle = h1
			}
		}
	}
	baseTitle := curTitle

	switch {
	case wordCount(baseTitle) > 4 && rxTitleSeparator.MatchString(baseTitle):
		curTitle = longestTitleSegment(baseTitle)
		if wordCount(curTitle) < 3 {
			curTitle = afterFirstSeparator(baseTitle)
		}
	case strings.Contains(baseTitle, ": "):
		curTitle = titleAfterColon(baseTitle, doc)
	}

	curTitle = strings.TrimSpace(rxNormalize.ReplaceAllString(curTitle, " "))

	// Short results that dropped too much of a longer title are worse than
	// the title itself.
	curWords := wordCount(curTitle)
	baseWords := wordCount(baseTitle)
	if curTitle != baseTitle && curWords <= 4 && baseWords > 4 && baseWords-curWords >= 2 {
		curTitle = baseTitle
	}
	return curTitle
}

// longestTitleSegment splits on every spaced separator and keeps the longest
// piece.
func longestTitleSegment(title string) string {
	var best string
	for _, seg := range rxTitleSeparator.Split(title, -1) {
		seg = strings.TrimSpace(seg)
		if charCount(seg) > charCount(best) {
			best = seg
		}
	}
	return best
}

func afterFirstSeparator(title string) string {
	loc := rxTitleSeparator.FindStringIndex(title)
	if loc == nil {
		return title
	}
	return strings.TrimSpace(title[loc[1]:])
}

func titleAfterColon(title string, doc *html.Node) string {
	first := strings.Index(title, ":")
	afterFirst := strings.TrimSpace(title[first+1:])
	for _, h := range elementsByTag(doc, "h1", "h2") {
		if strings.TrimSpace(textContent(h)) == afterFirst {
			return afterFirst
		}
	}
	afterLast := strings.TrimSpace(title[strings.LastIndex(title, ":")+1:])
	if wordCount(afterLast) >= 3 {
		return afterLast
	}
	if wordCount(title[:first]) <= 5 {
		return afterFirst
	}
	return title
}
