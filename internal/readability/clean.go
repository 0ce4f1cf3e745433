package readability

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// textishTags are the elements whose text counts towards text density in
// conditional cleaning.
var textishTags = []string{"span", "li", "td", "blockquote", "dl", "div", "img", "ol", "p", "pre", "table", "ul"}

// sanitizer removes boilerplate from an assembled article container. Data
// table marks live only as long as one prepArticle call.
type sanitizer struct {
	s          *session
	flags      flags
	dataTables map[*html.Node]bool
}

func newSanitizer(s *session, f flags) *sanitizer {
	return &sanitizer{s: s, flags: f}
}

// maxSanitizePasses bounds the fixed-point loop in prepArticle.
const maxSanitizePasses = 8

// prepArticle cleans article in place. Removing an inner node can push its
// container over a removal threshold, so passes repeat until one leaves the
// markup unchanged. Running it again on its own output changes nothing.
func (c *sanitizer) prepArticle(article *html.Node) {
	before := innerHTML(article)
	for i := 0; i < maxSanitizePasses; i++ {
		c.sanitizePass(article)
		after := innerHTML(article)
		if after == before {
			return
		}
		before = after
	}
	c.s.log.Debug().Int("passes", maxSanitizePasses).Msg("sanitizer did not settle")
}

func (c *sanitizer) sanitizePass(article *html.Node) {
	cleanStyles(article)

	c.markDataTables(article)

	fixLazyImages(article)

	c.cleanConditionally(article, "form")
	c.cleanConditionally(article, "fieldset")
	c.clean(article, "object")
	c.clean(article, "embed")
	c.clean(article, "footer")
	c.clean(article, "link")
	c.clean(article, "aside")

	// Share widgets are only removed while small; a large block matching the
	// pattern is more likely content.
	threshold := c.s.opts.CharThreshold
	for _, top := range children(article) {
		c.cleanMatchedNodes(top, func(n *html.Node, matchString string) bool {
			return rxShareElements.MatchString(matchString) && charCount(textContent(n)) < threshold
		})
	}

	c.clean(article, "iframe")
	for tag := range formControls {
		c.clean(article, tag)
	}
	c.cleanHeaders(article)

	c.cleanConditionally(article, "table")
	c.cleanConditionally(article, "ul")
	c.cleanConditionally(article, "div")

	for _, h1 := range elementsByTag(article, "h1") {
		c.s.setNodeTag(h1, "h2")
	}

	removeNodes(elementsByTag(article, "p"), func(p *html.Node) bool {
		return len(elementsByTag(p, "img", "embed", "object", "iframe")) == 0 && innerText(p, false) == ""
	})

	for _, br := range elementsByTag(article, "br") {
		if next := skipWhitespace(br.NextSibling); next != nil && isTag(next, "p") {
			detach(br)
		}
	}

	c.collapseSingleCellTables(article)
}

// cleanStyles strips presentational attributes from n and its descendants.
// SVG subtrees are left untouched.
func cleanStyles(n *html.Node) {
	if n == nil || isTag(n, "svg") {
		return
	}
	for _, attr := range presentationalAttributes {
		removeAttr(n, attr)
	}
	if deprecatedSizeAttributeElems.has(tagName(n)) {
		removeAttr(n, "width")
		removeAttr(n, "height")
	}
	for child := firstElementChild(n); child != nil; child = nextElementSibling(child) {
		cleanStyles(child)
	}
}

// markDataTables records which tables hold data rather than layout.
func (c *sanitizer) markDataTables(root *html.Node) {
	c.dataTables = make(map[*html.Node]bool)
	for _, table := range elementsByTag(root, "table") {
		c.dataTables[table] = isDataTable(table)
	}
}

func isDataTable(table *html.Node) bool {
	if getAttr(table, "role") == "presentation" {
		return false
	}
	if getAttr(table, "datatable") == "0" {
		return false
	}
	if hasAttr(table, "summary") {
		return true
	}
	if caption := firstByTag(table, "caption"); caption != nil && caption.FirstChild != nil {
		return true
	}
	if len(elementsByTag(table, "col", "colgroup", "tfoot", "thead", "th")) > 0 {
		return true
	}
	if len(elementsByTag(table, "table")) > 0 {
		return false
	}
	rows, columns := rowAndColumnCount(table)
	if rows == 1 || columns == 1 {
		return false
	}
	if rows >= 10 || columns > 4 {
		return true
	}
	return rows*columns > 10
}

func rowAndColumnCount(table *html.Node) (rows, columns int) {
	for _, tr := range elementsByTag(table, "tr") {
		rowspan, _ := strconv.Atoi(getAttr(tr, "rowspan"))
		rows += max(rowspan, 1)

		inRow := 0
		for _, td := range elementsByTag(tr, "td") {
			colspan, _ := strconv.Atoi(getAttr(td, "colspan"))
			inRow += max(colspan, 1)
		}
		columns = max(columns, inRow)
	}
	return rows, columns
}

func (c *sanitizer) isDataTable(n *html.Node) bool {
	return c.dataTables[n]
}

// fixLazyImages promotes image URLs kept in data attributes to src/srcset,
// and drops tiny base64 placeholders when a real URL is available.
func fixLazyImages(root *html.Node) {
	for _, elem := range elementsByTag(root, "img", "picture", "figure") {
		src := getAttr(elem, "src")
		if m := rxB64DataURL.FindStringSubmatch(src); m != nil {
			if m[1] == "image/svg+xml" {
				continue
			}
			srcCouldBeRemoved := false
			for _, a := range elem.Attr {
				if a.Key != "src" && rxImageExtension.MatchString(a.Val) {
					srcCouldBeRemoved = true
					break
				}
			}
			// Placeholders are small; real inline images are left alone.
			if srcCouldBeRemoved {
				b64Start := strings.Index(strings.ToLower(src), "base64") + 7
				if len(src)-b64Start < 133 {
					removeAttr(elem, "src")
					src = ""
				}
			}
		}

		srcset := getAttr(elem, "srcset")
		if (src != "" || (srcset != "" && srcset != "null")) && !strings.Contains(strings.ToLower(className(elem)), "lazy") {
			continue
		}

		attrs := append([]html.Attribute(nil), elem.Attr...)
		for _, a := range attrs {
			if a.Key == "src" || a.Key == "srcset" || a.Key == "alt" {
				continue
			}
			var copyTo string
			switch {
			case rxLazySrcset.MatchString(a.Val):
				copyTo = "srcset"
			case rxLazySrc.MatchString(a.Val):
				copyTo = "src"
			default:
				continue
			}
			switch tagName(elem) {
			case "img", "picture":
				setAttr(elem, copyTo, a.Val)
			case "figure":
				if len(elementsByTag(elem, "img", "picture")) == 0 {
					img := createElement("img")
					setAttr(img, copyTo, a.Val)
					elem.AppendChild(img)
				}
			}
		}
	}
}

// isVideoEmbed reports whether any attribute of n, or an object's markup,
// points at an allowed video host.
func (c *sanitizer) isVideoEmbed(n *html.Node) bool {
	for _, a := range n.Attr {
		if c.s.opts.AllowedVideoRegex.MatchString(a.Val) {
			return true
		}
	}
	return isTag(n, "object") && c.s.opts.AllowedVideoRegex.MatchString(innerHTML(n))
}

// clean removes every tag element under root. Video embeds survive.
func (c *sanitizer) clean(root *html.Node, tag string) {
	isEmbed := embedTags.has(tag)
	removeNodes(elementsByTag(root, tag), func(n *html.Node) bool {
		return !(isEmbed && c.isVideoEmbed(n))
	})
}

// cleanMatchedNodes removes descendants of n whose "class id" string is
// accepted by filter.
func (c *sanitizer) cleanMatchedNodes(n *html.Node, filter func(*html.Node, string) bool) {
	end := nextNode(n, true)
	next := nextNode(n, false)
	for next != nil && next != end {
		if filter(next, className(next)+" "+idOf(next)) {
			next = removeAndGetNext(next)
		} else {
			next = nextNode(next, false)
		}
	}
}

// cleanHeaders drops h1/h2 elements that are negatively weighted or repeat
// the article title.
func (c *sanitizer) cleanHeaders(root *html.Node) {
	removeNodes(elementsByTag(root, "h1", "h2"), func(n *html.Node) bool {
		if classWeight(n, c.flags) < 0 {
			c.s.log.Trace().Str("heading", innerText(n, true)).Msg("removing negatively weighted heading")
			return true
		}
		return c.s.headerDuplicatesTitle(n)
	})
}

// cleanConditionally removes tag elements under root that look like
// boilerplate by their link, text, image and embed ratios.
func (c *sanitizer) cleanConditionally(root *html.Node, tag string) {
	if !c.flags.has(flagCleanConditionally) {
		return
	}
	removeNodes(elementsByTag(root, tag), func(n *html.Node) bool {
		remove := c.shouldRemove(n, tag)
		if remove {
			c.s.log.Trace().Str("tag", tag).Str("class", className(n)).Msg("conditionally removing node")
		}
		return remove
	})
}

func (c *sanitizer) shouldRemove(n *html.Node, tag string) bool {
	if tag == "table" && c.isDataTable(n) {
		return false
	}
	if hasAncestorTag(n, "table", 0, c.isDataTable) || hasAncestorTag(n, "code", 0, nil) {
		return false
	}
	for _, t := range elementsByTag(n, "table") {
		if c.isDataTable(t) {
			return false
		}
	}

	text := innerText(n, true)
	contentLength := charCount(text)

	isList := tag == "ul" || tag == "ol"
	var listLength int
	for _, list := range elementsByTag(n, "ul", "ol") {
		listLength += charCount(innerText(list, true))
	}
	if !isList && contentLength > 0 {
		isList = float64(listLength)/float64(contentLength) > 0.9
	}

	weight := classWeight(n, c.flags)
	if weight < 0 {
		return true
	}

	if contentLength < 50 && (rxAdWords.MatchString(text) || rxLoadingWords.MatchString(text)) {
		return true
	}

	if commaCount(text) >= 10 {
		return false
	}

	p := len(elementsByTag(n, "p"))
	img := len(elementsByTag(n, "img"))
	li := len(elementsByTag(n, "li"))
	input := len(elementsByTag(n, "input"))
	headingDensity := textDensity(n, "h1", "h2", "h3", "h4", "h5", "h6")

	embedCount, videoCount := 0, 0
	for _, embed := range elementsByTag(n, "object", "embed", "iframe") {
		if c.isVideoEmbed(embed) {
			videoCount++
			continue
		}
		embedCount++
	}

	density := linkDensity(n)
	textDens := textDensity(n, textishTags...)
	isFigureChild := hasAncestorTag(n, "figure", 0, nil)
	modifier := c.s.opts.LinkDensityModifier

	remove := false
	switch {
	case !isFigureChild && img > 1 && float64(p)/float64(img) < 0.5:
		remove = true
	case !isList && li > 0 && p == 0 && contentLength > 0 && float64(listLength)/float64(contentLength) > 0.5:
		remove = true
	case float64(input) > math.Floor(float64(p)/3):
		remove = true
	case !isList && !isFigureChild && contentLength < 25 && (img == 0 || img > 2) && headingDensity < 0.9 && density > 0.2:
		remove = true
	case !isList && weight < 25 && density > 0.2+modifier:
		remove = true
	case weight >= 25 && density > 0.5+modifier:
		remove = true
	case (embedCount == 1 && contentLength < 75 && img == 0) || embedCount > 1:
		remove = true
	case img == 0 && videoCount == 0 && textDens < 0.1 && contentLength < 100:
		remove = true
	}

	// Galleries: a list made only of single images stays.
	if isList && remove {
		for _, child := range children(n) {
			if len(children(child)) > 1 {
				return remove
			}
		}
		if img == li {
			return false
		}
	}
	return remove
}

// collapseSingleCellTables replaces one-cell layout tables with their cell,
// as a paragraph when it holds only inline content.
func (c *sanitizer) collapseSingleCellTables(root *html.Node) {
	for _, table := range elementsByTag(root, "table") {
		if table.Parent == nil {
			continue
		}
		tbody := table
		if hasSingleTagInsideElement(table, "tbody") {
			tbody = firstElementChild(table)
		}
		if !hasSingleTagInsideElement(tbody, "tr") {
			continue
		}
		row := firstElementChild(tbody)
		if !hasSingleTagInsideElement(row, "td") {
			continue
		}
		cell := firstElementChild(row)
		tag := "div"
		if allPhrasing(cell) {
			tag = "p"
		}
		c.s.setNodeTag(cell, tag)
		replaceNode(table, cell)
	}
}

func allPhrasing(n *html.Node) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if !isPhrasingContent(child) {
			return false
		}
	}
	return true
}
