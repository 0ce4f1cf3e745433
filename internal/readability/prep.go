package readability

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// unwrapNoscriptImages drops placeholder images that carry no image source
// and, where a <noscript> holds the real image for a preceding lazy
// placeholder, swaps the placeholder for it.
func (s *session) unwrapNoscriptImages() {
	removeNodes(elementsByTag(s.doc, "img"), func(img *html.Node) bool {
		for _, a := range img.Attr {
			switch a.Key {
			case "src", "srcset", "data-src", "data-srcset":
				return false
			}
			if rxImageExtension.MatchString(a.Val) {
				return false
			}
		}
		return true
	})

	for _, noscript := range elementsByTag(s.doc, "noscript") {
		if noscript.Parent == nil {
			continue
		}
		tmp := noscriptContent(noscript)
		if tmp == nil || !isSingleImage(tmp) {
			continue
		}
		prev := previousElementSibling(noscript)
		if prev == nil || !isSingleImage(prev) {
			continue
		}
		prevImg := prev
		if !isTag(prevImg, "img") {
			prevImg = firstByTag(prev, "img")
		}
		newImg := firstByTag(tmp, "img")
		if prevImg == nil || newImg == nil {
			continue
		}
		for _, a := range prevImg.Attr {
			if a.Val == "" {
				continue
			}
			if a.Key != "src" && a.Key != "srcset" && !rxImageExtension.MatchString(a.Val) {
				continue
			}
			if getAttr(newImg, a.Key) == a.Val {
				continue
			}
			name := a.Key
			if hasAttr(newImg, name) {
				name = "data-old-" + name
			}
			setAttr(newImg, name, a.Val)
		}
		if first := firstElementChild(tmp); first != nil {
			replaceNode(prev, first)
		}
	}
}

// noscriptContent returns a detached div holding the parsed content of a
// <noscript>. With scripting enabled the parser keeps that content as raw
// text, so it is parsed again here.
func noscriptContent(noscript *html.Node) *html.Node {
	tmp := createElement("div")
	if firstElementChild(noscript) != nil {
		for c := noscript.FirstChild; c != nil; c = c.NextSibling {
			tmp.AppendChild(cloneNode(c))
		}
		return tmp
	}
	raw := textContent(noscript)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(raw), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil
	}
	for _, n := range nodes {
		tmp.AppendChild(n)
	}
	return tmp
}

func (s *session) removeScripts() {
	removeNodes(elementsByTag(s.doc, "script", "noscript"), nil)
}

// prepDocument removes styles and comments, turns <br> runs into paragraphs
// and replaces <font> with <span>.
func (s *session) prepDocument() {
	removeNodes(elementsByTag(s.doc, "style"), nil)
	removeComments(s.doc)
	if body := s.body(); body != nil {
		s.replaceBrs(body)
	}
	for _, font := range elementsByTag(s.doc, "font") {
		s.setNodeTag(font, "span")
	}
}

func removeComments(root *html.Node) {
	var comments []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode {
				comments = append(comments, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	removeNodes(comments, nil)
}

// replaceBrs replaces two or more successive <br> elements with a single
// <p>, ignoring whitespace between them. The paragraph takes in the
// following phrasing content up to the next block or <br><br>:
//
//	<div>foo<br>bar<br> <br><br>abc</div>
//
// becomes
//
//	<div>foo<br>bar<p>abc</p></div>
func (s *session) replaceBrs(root *html.Node) {
	for _, br := range elementsByTag(root, "br") {
		if br.Parent == nil {
			continue
		}
		next := br.NextSibling
		replaced := false
		for {
			next = skipWhitespace(next)
			if next == nil || !isTag(next, "br") {
				break
			}
			replaced = true
			sibling := next.NextSibling
			detach(next)
			next = sibling
		}
		if !replaced {
			continue
		}

		p := createElement("p")
		replaceNode(br, p)
		next = p.NextSibling
		for next != nil {
			if isTag(next, "br") {
				if after := skipWhitespace(next.NextSibling); after != nil && isTag(after, "br") {
					break
				}
			}
			if !isPhrasingContent(next) {
				break
			}
			sibling := next.NextSibling
			appendChild(p, next)
			next = sibling
		}
		for p.LastChild != nil && isWhitespaceNode(p.LastChild) {
			p.RemoveChild(p.LastChild)
		}
		if isTag(p.Parent, "p") {
			s.setNodeTag(p.Parent, "div")
		}
	}
}

// setNodeTag retags n in place. Node identity is kept, so scores recorded
// for n stay valid. Attributes the new element could not carry are dropped.
func (s *session) setNodeTag(n *html.Node, tag string) *html.Node {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if !isValidAttrName(a.Key) {
			s.log.Debug().Str("attr", a.Key).Str("tag", tag).Msg("dropping invalid attribute")
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
	return n
}
