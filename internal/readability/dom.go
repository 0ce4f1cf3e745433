package readability

import (
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func tagName(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

func isElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

func isTag(n *html.Node, tag string) bool {
	return tagName(n) == tag
}

func getAttr(n *html.Node, key string) string {
	return dom.GetAttribute(n, key)
}

func hasAttr(n *html.Node, key string) bool {
	return dom.HasAttribute(n, key)
}

func setAttr(n *html.Node, key, val string) {
	dom.SetAttribute(n, key, val)
}

func removeAttr(n *html.Node, key string) {
	dom.RemoveAttribute(n, key)
}

func className(n *html.Node) string {
	return getAttr(n, "class")
}

func idOf(n *html.Node) string {
	return getAttr(n, "id")
}

// textContent returns the concatenated text of all descendant text nodes.
func textContent(n *html.Node) string {
	return dom.TextContent(n)
}

// innerText returns the trimmed text content, with whitespace runs collapsed
// when normalize is set.
func innerText(n *html.Node, normalize bool) string {
	text := strings.TrimSpace(textContent(n))
	if normalize {
		text = rxNormalize.ReplaceAllString(text, " ")
	}
	return text
}

// children returns the element children of n.
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func previousElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// elementsByTag collects descendants of root (excluding root) whose tag is in
// tags, in document order. The result is a snapshot: callers may mutate the
// tree while iterating it.
func elementsByTag(root *html.Node, tags ...string) []*html.Node {
	set := newTagSet(tags...)
	all := len(tags) == 1 && tags[0] == "*"
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (all || set.has(tagName(c))) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

func firstByTag(root *html.Node, tag string) *html.Node {
	if isTag(root, tag) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := firstByTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func countElements(root *html.Node) int {
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				count++
			}
			walk(c)
		}
	}
	walk(root)
	return count
}

func detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func appendChild(parent, child *html.Node) {
	detach(child)
	parent.AppendChild(child)
}

// replaceNode puts replacement where old was and detaches old.
func replaceNode(old, replacement *html.Node) {
	if old.Parent == nil {
		return
	}
	detach(replacement)
	old.Parent.InsertBefore(replacement, old)
	old.Parent.RemoveChild(old)
}

func createElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func createTextNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

func cloneNode(n *html.Node) *html.Node {
	return dom.Clone(n, true)
}

// removeNodes detaches every node for which remove returns true, iterating
// backwards so earlier removals do not disturb later indices.
func removeNodes(nodes []*html.Node, remove func(*html.Node) bool) {
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.Parent == nil {
			continue
		}
		if remove == nil || remove(n) {
			detach(n)
		}
	}
}

// isValidAttrName reports whether key is acceptable as an attribute name
// when copying attributes onto a new element.
func isValidAttrName(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r <= ' ', r == '"', r == '\'', r == '>', r == '/', r == '=', r == 0x7f:
			return false
		}
	}
	return true
}

// hasAncestorTag reports whether n has an ancestor with the given tag within
// maxDepth levels (maxDepth <= 0 means unlimited). filter, when set, must
// also accept the ancestor.
func hasAncestorTag(n *html.Node, tag string, maxDepth int, filter func(*html.Node) bool) bool {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		if maxDepth > 0 && depth >= maxDepth {
			return false
		}
		if isTag(p, tag) && (filter == nil || filter(p)) {
			return true
		}
		depth++
	}
	return false
}

// nodeAncestors returns up to maxDepth ancestors of n, nearest first.
func nodeAncestors(n *html.Node, maxDepth int) []*html.Node {
	var out []*html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
		if maxDepth > 0 && len(out) == maxDepth {
			break
		}
	}
	return out
}

func innerHTML(n *html.Node) string {
	return dom.InnerHTML(n)
}
