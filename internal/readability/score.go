package readability

import (
	"golang.org/x/net/html"
)

// nodeScore is the transient readability state of one element.
type nodeScore struct {
	contentScore float64
}

// scoreTable holds the per-node scores of a single attempt. A fresh table is
// created for every attempt, so no state leaks between retries.
type scoreTable struct {
	flags  flags
	scores map[*html.Node]*nodeScore
}

func newScoreTable(f flags) *scoreTable {
	return &scoreTable{flags: f, scores: make(map[*html.Node]*nodeScore)}
}

func (t *scoreTable) get(n *html.Node) (*nodeScore, bool) {
	s, ok := t.scores[n]
	return s, ok
}

func (t *scoreTable) score(n *html.Node) float64 {
	if s, ok := t.scores[n]; ok {
		return s.contentScore
	}
	return 0
}

// initialize creates the state for n from its tag and class weight. It is a
// no-op when n already has state, so each node is initialized once.
func (t *scoreTable) initialize(n *html.Node) *nodeScore {
	if s, ok := t.scores[n]; ok {
		return s
	}
	s := &nodeScore{}
	switch tagName(n) {
	case "div":
		s.contentScore += 5
	case "pre", "td", "blockquote":
		s.contentScore += 3
	case "address", "ol", "ul", "dl", "dd", "dt", "li", "form":
		s.contentScore -= 3
	case "h1", "h2", "h3", "h4", "h5", "h6", "th":
		s.contentScore -= 5
	}
	s.contentScore += float64(classWeight(n, t.flags))
	t.scores[n] = s
	return s
}

// classWeight scores class and id against the positive and negative
// patterns. It is zero unless class weighting is active.
func classWeight(n *html.Node, f flags) int {
	if !f.has(flagWeightClasses) {
		return 0
	}
	weight := 0
	if cls := className(n); cls != "" {
		if rxNegative.MatchString(cls) {
			weight -= 25
		}
		if rxPositive.MatchString(cls) {
			weight += 25
		}
	}
	if id := idOf(n); id != "" {
		if rxNegative.MatchString(id) {
			weight -= 25
		}
		if rxPositive.MatchString(id) {
			weight += 25
		}
	}
	return weight
}

// linkDensity is the share of n's text that sits inside links. Hash links
// count for 30% of their length.
func linkDensity(n *html.Node) float64 {
	textLength := charCount(innerText(n, true))
	if textLength == 0 {
		return 0
	}
	var linkLength float64
	for _, a := range elementsByTag(n, "a") {
		coefficient := 1.0
		if href := getAttr(a, "href"); href != "" && rxHashURL.MatchString(href) {
			coefficient = 0.3
		}
		linkLength += float64(charCount(innerText(a, true))) * coefficient
	}
	return linkLength / float64(textLength)
}

// textDensity is the share of n's text that sits inside elements of the
// given tags.
func textDensity(n *html.Node, tags ...string) float64 {
	textLength := charCount(innerText(n, true))
	if textLength == 0 {
		return 0
	}
	var childrenLength int
	for _, c := range elementsByTag(n, tags...) {
		childrenLength += charCount(innerText(c, true))
	}
	return float64(childrenLength) / float64(textLength)
}
