package readability

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// pageID is the id of the wrapper that holds the article content.
const pageID = "readability-page-1"

// wrapPage puts the article content inside the page container. A
// synthesized top candidate already is such a container and is only marked.
func wrapPage(articleContent, topCandidate *html.Node, synthesized bool) {
	if synthesized {
		setAttr(topCandidate, "id", pageID)
		setAttr(topCandidate, "class", "page")
		return
	}
	div := createElement("div")
	setAttr(div, "id", pageID)
	setAttr(div, "class", "page")
	for articleContent.FirstChild != nil {
		appendChild(div, articleContent.FirstChild)
	}
	articleContent.AppendChild(div)
}

// postProcessContent readies the article for output: absolute links,
// flattened wrappers and, unless disabled, stripped classes.
func (s *session) postProcessContent(content *html.Node) {
	s.fixRelativeURIs(content)
	simplifyNestedElements(content)
	if !s.opts.KeepClasses {
		cleanClasses(content, newTagSet(s.opts.ClassesToPreserve...))
	}
}

// baseURL is the <base href> resolved against the page URL, or the page URL.
func (s *session) baseURL() *url.URL {
	base := s.pageURL
	for _, b := range elementsByTag(s.doc, "base") {
		href := strings.TrimSpace(getAttr(b, "href"))
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			s.log.Warn().Err(err).Str("href", href).Msg("ignoring invalid base href")
			break
		}
		if base != nil {
			return base.ResolveReference(ref)
		}
		if ref.IsAbs() {
			return ref
		}
		break
	}
	return base
}

// fixRelativeURIs rewrites href, src, poster and srcset values under content
// to absolute URLs. javascript: links are replaced by their content.
func (s *session) fixRelativeURIs(content *html.Node) {
	base := s.baseURL()
	sameDocument := base != nil && s.pageURL != nil && base.String() == s.pageURL.String()

	toAbsolute := func(uri string) string {
		if base == nil {
			return uri
		}
		if sameDocument && strings.HasPrefix(uri, "#") {
			return uri
		}
		ref, err := url.Parse(strings.TrimSpace(uri))
		if err != nil {
			s.log.Warn().Err(err).Str("uri", uri).Msg("keeping unresolvable URI")
			return uri
		}
		if ref.IsAbs() {
			return uri
		}
		return base.ResolveReference(ref).String()
	}

	for _, link := range elementsByTag(content, "a") {
		href := getAttr(link, "href")
		if !strings.HasPrefix(strings.TrimSpace(href), "javascript:") {
			continue
		}
		if link.FirstChild != nil && link.FirstChild == link.LastChild && link.FirstChild.Type == html.TextNode {
			replaceNode(link, createTextNode(textContent(link)))
			continue
		}
		span := createElement("span")
		for link.FirstChild != nil {
			appendChild(span, link.FirstChild)
		}
		replaceNode(link, span)
	}

	for _, el := range elementsByTag(content, "*") {
		for _, key := range []string{"href", "src", "poster"} {
			if v := getAttr(el, key); v != "" {
				setAttr(el, key, toAbsolute(v))
			}
		}
		if srcset := getAttr(el, "srcset"); srcset != "" {
			setAttr(el, "srcset", rxSrcsetURL.ReplaceAllStringFunc(srcset, func(m string) string {
				parts := rxSrcsetURL.FindStringSubmatch(m)
				return toAbsolute(parts[1]) + parts[2] + parts[3]
			}))
		}
	}
}

// simplifyNestedElements drops empty div/section wrappers and replaces a
// wrapper holding a single div/section with that child, copying the
// wrapper's attributes onto it.
func simplifyNestedElements(content *html.Node) {
	node := content
	for node != nil {
		tag := tagName(node)
		if node.Parent != nil && (tag == "div" || tag == "section") && !strings.HasPrefix(idOf(node), "readability") {
			if isElementWithoutContent(node) {
				node = removeAndGetNext(node)
				continue
			}
			if hasSingleTagInsideElement(node, "div") || hasSingleTagInsideElement(node, "section") {
				child := firstElementChild(node)
				for _, a := range node.Attr {
					setAttr(child, a.Key, a.Val)
				}
				replaceNode(node, child)
				node = child
				continue
			}
		}
		node = nextNode(node, false)
	}
}

// cleanClasses removes every class not in preserve from n and its
// descendants.
func cleanClasses(n *html.Node, preserve tagSet) {
	var kept []string
	for _, cls := range strings.Fields(className(n)) {
		if preserve.has(cls) {
			kept = append(kept, cls)
		}
	}
	if len(kept) > 0 {
		setAttr(n, "class", strings.Join(kept, " "))
	} else {
		removeAttr(n, "class")
	}
	for child := firstElementChild(n); child != nil; child = nextElementSibling(child) {
		cleanClasses(child, preserve)
	}
}
