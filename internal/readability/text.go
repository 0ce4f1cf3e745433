package readability

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	rxNamedEntity   = regexp.MustCompile(`&(quot|amp|apos|lt|gt);`)
	rxNumericEntity = regexp.MustCompile(`(?i)&#(?:x([0-9a-f]+)|([0-9]+));`)
)

// charCount is the length measure used by every threshold: characters, not
// bytes.
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// commaCount counts commas, including the non-latin comma variants.
func commaCount(s string) int {
	return len(rxCommas.FindAllStringIndex(s, -1))
}

func tokenize(s string) []string {
	var out []string
	for _, t := range rxTokenize.Split(strings.ToLower(s), -1) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// textSimilarity compares the tokens of b against those of a and returns a
// value in [0,1] where 1 means every token of b also occurs in a.
func textSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	inA := make(map[string]struct{}, len(tokensA))
	for _, t := range tokensA {
		inA[t] = struct{}{}
	}
	var uniqB []string
	for _, t := range tokensB {
		if _, ok := inA[t]; !ok {
			uniqB = append(uniqB, t)
		}
	}
	distance := float64(charCount(strings.Join(uniqB, " "))) / float64(charCount(strings.Join(tokensB, " ")))
	return 1 - distance
}

// unescapeHTMLEntities decodes the five basic named entities and numeric
// character references. Invalid code points become U+FFFD.
func unescapeHTMLEntities(s string) string {
	if s == "" {
		return s
	}
	s = rxNamedEntity.ReplaceAllStringFunc(s, func(m string) string {
		return htmlEscapeMap[m[1:len(m)-1]]
	})
	return rxNumericEntity.ReplaceAllStringFunc(s, func(m string) string {
		parts := rxNumericEntity.FindStringSubmatch(m)
		var num int64
		var err error
		if parts[1] != "" {
			num, err = strconv.ParseInt(parts[1], 16, 64)
		} else {
			num, err = strconv.ParseInt(parts[2], 10, 64)
		}
		if err != nil || num == 0 || num > 0x10ffff || (num >= 0xd800 && num <= 0xdfff) {
			num = 0xfffd
		}
		return string(rune(num))
	})
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func isWhitespaceNode(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	case html.ElementNode:
		return tagName(n) == "br"
	}
	return false
}

// isPhrasingContent reports whether n is inline content. Links and edits
// only count when everything inside them is phrasing content too.
func isPhrasingContent(n *html.Node) bool {
	if n.Type == html.TextNode {
		return true
	}
	if n.Type != html.ElementNode {
		return false
	}
	tag := tagName(n)
	if phrasingElems.has(tag) {
		return true
	}
	if tag == "a" || tag == "del" || tag == "ins" {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !isPhrasingContent(c) {
				return false
			}
		}
		return true
	}
	return false
}

// hasSingleTagInsideElement reports whether n has exactly one element child,
// of the given tag, and no text with content beside it.
func hasSingleTagInsideElement(n *html.Node, tag string) bool {
	kids := children(n)
	if len(kids) != 1 || tagName(kids[0]) != tag {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && rxHasContent.MatchString(c.Data) {
			return false
		}
	}
	return true
}

func hasChildBlockElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if divToPElems.has(tagName(c)) || hasChildBlockElement(c) {
			return true
		}
	}
	return false
}

// isElementWithoutContent is true for elements with no text whose only
// element children, if any, are line breaks and rules.
func isElementWithoutContent(n *html.Node) bool {
	if !isElement(n) || strings.TrimSpace(textContent(n)) != "" {
		return false
	}
	kids := children(n)
	if len(kids) == 0 {
		return true
	}
	breaks := len(elementsByTag(n, "br", "hr"))
	return len(kids) == breaks
}

// isSingleImage follows single-element chains without text down to an img.
func isSingleImage(n *html.Node) bool {
	for n != nil {
		if isTag(n, "img") {
			return true
		}
		kids := children(n)
		if len(kids) != 1 || strings.TrimSpace(textContent(n)) != "" {
			return false
		}
		n = kids[0]
	}
	return false
}

// isProbablyVisible applies the inline style and attribute checks; no
// computed style is available.
func isProbablyVisible(n *html.Node) bool {
	style := getAttr(n, "style")
	if style != "" && (rxDisplayNone.MatchString(style) || rxVisibilityHidden.MatchString(style)) {
		return false
	}
	if hasAttr(n, "hidden") {
		return false
	}
	if hasAttr(n, "aria-hidden") && getAttr(n, "aria-hidden") == "true" {
		return strings.Contains(className(n), "fallback-image")
	}
	return true
}

// skipWhitespace returns the first node from n onwards that is an element or
// carries non-whitespace text.
func skipWhitespace(n *html.Node) *html.Node {
	for n != nil && n.Type != html.ElementNode && rxWhitespace.MatchString(textContent(n)) {
		n = n.NextSibling
	}
	return n
}

// nextNode is the traversal cursor: depth-first over elements, optionally
// skipping n's own subtree. It only reads the structure, so callers compute
// the successor before mutating n.
func nextNode(n *html.Node, ignoreSelfAndKids bool) *html.Node {
	if !ignoreSelfAndKids {
		if first := firstElementChild(n); first != nil {
			return first
		}
	}
	if next := nextElementSibling(n); next != nil {
		return next
	}
	for n = n.Parent; n != nil; n = n.Parent {
		if next := nextElementSibling(n); next != nil {
			return next
		}
	}
	return nil
}

// removeAndGetNext detaches n and returns the node the walk continues with.
func removeAndGetNext(n *html.Node) *html.Node {
	next := nextNode(n, true)
	detach(n)
	return next
}
