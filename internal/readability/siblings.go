package readability

import (
	"math"
	"strings"

	"golang.org/x/net/html"
)

// collectSiblings builds the article container from the top candidate and
// those of its siblings that look like part of the same article.
func (s *session) collectSiblings(scores *scoreTable, topCandidate *html.Node) *html.Node {
	articleContent := createElement("div")
	topScore := scores.score(topCandidate)
	threshold := math.Max(10, topScore*0.2)
	topClass := className(topCandidate)

	parent := topCandidate.Parent
	if parent == nil {
		appendChild(articleContent, topCandidate)
		return articleContent
	}

	for _, sibling := range children(parent) {
		if !s.includeSibling(scores, sibling, topCandidate, topClass, topScore, threshold) {
			continue
		}
		if !alterToDivExceptions.has(tagName(sibling)) {
			s.log.Trace().Str("tag", tagName(sibling)).Msg("retagging sibling to div")
			s.setNodeTag(sibling, "div")
		}
		appendChild(articleContent, sibling)
	}
	return articleContent
}

func (s *session) includeSibling(scores *scoreTable, sibling, topCandidate *html.Node, topClass string, topScore, threshold float64) bool {
	if sibling == topCandidate {
		return true
	}

	var bonus float64
	if topClass != "" && className(sibling) == topClass {
		bonus += topScore * 0.2
	}
	if st, ok := scores.get(sibling); ok && st.contentScore+bonus >= threshold {
		return true
	}

	if !isTag(sibling, "p") {
		return false
	}
	density := linkDensity(sibling)
	content := innerText(sibling, true)
	length := charCount(content)
	switch {
	case length > 80 && density < 0.25:
		return true
	case length > 0 && length < 80 && density == 0 && strings.Contains(content, "."):
		return true
	}
	return false
}
