package readability

import (
	"strings"

	"golang.org/x/net/html"
)

// minimumTopCandidates is how many close runner-up candidates must share an
// ancestor before that ancestor replaces the top candidate.
const minimumTopCandidates = 3

// attempt is the outcome of one pass under one set of flags.
type attempt struct {
	content    *html.Node
	textLength int
	dir        string
	byline     string
}

// grabArticle runs the scoring passes, each on a fresh copy of the original
// body, until one yields enough text. When none does, the longest non-empty
// attempt is returned, or nil.
func (s *session) grabArticle() *attempt {
	body := s.body()
	if body == nil {
		return nil
	}
	pristine := cloneNode(body)

	var attempts []*attempt
	for i, f := range attemptFlags {
		if i > 0 {
			fresh := cloneNode(pristine)
			replaceNode(body, fresh)
			body = fresh
		}
		a := s.grabAttempt(body, f)
		if a == nil {
			continue
		}
		if a.textLength >= s.opts.CharThreshold {
			return a
		}
		s.log.Debug().Int("attempt", i+1).Int("length", a.textLength).Int("threshold", s.opts.CharThreshold).
			Msg("attempt below threshold; relaxing heuristics")
		attempts = append(attempts, a)
	}

	var best *attempt
	for _, a := range attempts {
		if best == nil || a.textLength > best.textLength {
			best = a
		}
	}
	if best == nil || best.textLength == 0 {
		return nil
	}
	return best
}

// grabAttempt is one pass: walk and prune the tree, score paragraphs, pick
// the top candidate, gather its siblings and sanitize the result.
func (s *session) grabAttempt(page *html.Node, f flags) *attempt {
	scores := newScoreTable(f)
	elementsToScore, byline := s.prepareNodes(page, f)

	candidates := s.scoreElements(scores, elementsToScore)
	topCandidates := s.rankCandidates(scores, candidates)

	topCandidate, synthesized := s.selectTopCandidate(scores, page, topCandidates)
	dir := resolveDir(topCandidate)

	articleContent := s.collectSiblings(scores, topCandidate)

	newSanitizer(s, f).prepArticle(articleContent)

	wrapPage(articleContent, topCandidate, synthesized)

	if dir == "" {
		dir = s.fallbackDir(articleContent)
	}
	return &attempt{
		content:    articleContent,
		textLength: charCount(innerText(articleContent, true)),
		dir:        dir,
		byline:     byline,
	}
}

// prepareNodes walks page depth-first, removing hidden, unlikely and empty
// nodes, capturing a byline, and rewriting divs that are really paragraphs.
// It returns the elements to score in document order.
func (s *session) prepareNodes(page *html.Node, f flags) ([]*html.Node, string) {
	var elementsToScore []*html.Node
	var byline string
	shouldRemoveTitleHeader := true

	node := page
	for node != nil {
		if node == page {
			node = nextNode(node, false)
			continue
		}
		tag := tagName(node)
		matchString := className(node) + " " + idOf(node)

		if !isProbablyVisible(node) {
			s.log.Trace().Str("tag", tag).Msg("removing hidden node")
			node = removeAndGetNext(node)
			continue
		}

		if getAttr(node, "aria-modal") == "true" && getAttr(node, "role") == "dialog" {
			node = removeAndGetNext(node)
			continue
		}

		// Metadata bylines take precedence; the DOM is only searched when
		// metadata has none.
		if byline == "" && s.metadata.Byline == "" && isValidByline(node, matchString) {
			byline = bylineText(node)
			node = removeAndGetNext(node)
			continue
		}

		if shouldRemoveTitleHeader && s.headerDuplicatesTitle(node) {
			s.log.Trace().Str("heading", innerText(node, false)).Msg("removing title duplicate heading")
			shouldRemoveTitleHeader = false
			node = removeAndGetNext(node)
			continue
		}

		if f.has(flagStripUnlikelys) {
			if rxUnlikelyCandidates.MatchString(matchString) &&
				!rxOkMaybeItsACandidate.MatchString(matchString) &&
				!hasAncestorTag(node, "table", 0, nil) &&
				!hasAncestorTag(node, "code", 0, nil) &&
				tag != "body" && tag != "a" {
				s.log.Trace().Str("match", matchString).Msg("removing unlikely candidate")
				node = removeAndGetNext(node)
				continue
			}
			if unlikelyRoles.has(getAttr(node, "role")) {
				node = removeAndGetNext(node)
				continue
			}
		}

		if blockWithoutContent.has(tag) && isElementWithoutContent(node) {
			node = removeAndGetNext(node)
			continue
		}

		if defaultTagsToScore.has(tag) {
			elementsToScore = append(elementsToScore, node)
		}

		if tag == "div" {
			wrapPhrasingContent(node)

			// A div holding a single paragraph and few links is that
			// paragraph.
			if hasSingleTagInsideElement(node, "p") && linkDensity(node) < 0.25 {
				p := firstElementChild(node)
				replaceNode(node, p)
				node = p
				elementsToScore = append(elementsToScore, node)
			} else if !hasChildBlockElement(node) {
				node = s.setNodeTag(node, "p")
				elementsToScore = append(elementsToScore, node)
			}
		}
		node = nextNode(node, false)
	}
	return elementsToScore, byline
}

// wrapPhrasingContent moves runs of inline children of div into new <p>
// elements. Runs of whitespace alone are left alone.
func wrapPhrasingContent(div *html.Node) {
	var p *html.Node
	child := div.FirstChild
	for child != nil {
		next := child.NextSibling
		if isPhrasingContent(child) {
			if p != nil {
				appendChild(p, child)
			} else if !isWhitespaceNode(child) {
				p = createElement("p")
				div.InsertBefore(p, child)
				appendChild(p, child)
			}
		} else if p != nil {
			trimTrailingWhitespace(p)
			p = nil
		}
		child = next
	}
	if p != nil {
		trimTrailingWhitespace(p)
	}
}

func trimTrailingWhitespace(p *html.Node) {
	for p.LastChild != nil && isWhitespaceNode(p.LastChild) {
		p.RemoveChild(p.LastChild)
	}
}

func isValidByline(n *html.Node, matchString string) bool {
	rel := getAttr(n, "rel")
	itemprop := getAttr(n, "itemprop")
	length := charCount(strings.TrimSpace(textContent(n)))
	return (rel == "author" || strings.Contains(itemprop, "author") || rxByline.MatchString(matchString)) &&
		length > 0 && length <= 100
}

// bylineText prefers a descendant marked itemprop="name".
func bylineText(n *html.Node) string {
	end := nextNode(n, true)
	for next := nextNode(n, false); next != nil && next != end; next = nextNode(next, false) {
		if strings.Contains(getAttr(next, "itemprop"), "name") {
			return strings.TrimSpace(textContent(next))
		}
	}
	return strings.TrimSpace(textContent(n))
}

// headerDuplicatesTitle reports whether n is an h1/h2 repeating the title.
func (s *session) headerDuplicatesTitle(n *html.Node) bool {
	if s.articleTitle == "" {
		return false
	}
	tag := tagName(n)
	if tag != "h1" && tag != "h2" {
		return false
	}
	heading := innerText(n, false)
	sim := textSimilarity(s.articleTitle, heading)
	if sim > 0.75 {
		return true
	}
	return sim > 0.5 && float64(charCount(heading)) <= float64(charCount(s.articleTitle))*2/3
}

// scoreElements adds each paragraph's score to up to five ancestors and
// returns the ancestors in the order they were first scored.
func (s *session) scoreElements(scores *scoreTable, elements []*html.Node) []*html.Node {
	var candidates []*html.Node
	for _, el := range elements {
		if el.Parent == nil || el.Parent.Type != html.ElementNode {
			continue
		}
		text := innerText(el, true)
		length := charCount(text)
		if length < 25 {
			continue
		}
		ancestors := nodeAncestors(el, 5)
		if len(ancestors) == 0 {
			continue
		}

		contentScore := 1.0
		contentScore += float64(commaCount(text))
		contentScore += float64(min(length/100, 3))

		for level, ancestor := range ancestors {
			if ancestor.Type != html.ElementNode || ancestor.Parent == nil || ancestor.Parent.Type != html.ElementNode {
				continue
			}
			if _, ok := scores.get(ancestor); !ok {
				scores.initialize(ancestor)
				candidates = append(candidates, ancestor)
			}
			var divider float64
			switch level {
			case 0:
				divider = 1
			case 1:
				divider = 2
			default:
				divider = float64(level * 3)
			}
			st, _ := scores.get(ancestor)
			st.contentScore += contentScore / divider
		}
	}
	return candidates
}

// rankCandidates scales each candidate by its link density and keeps the
// best NbTopCandidates, highest first. Ties keep document order.
func (s *session) rankCandidates(scores *scoreTable, candidates []*html.Node) []*html.Node {
	var top []*html.Node
	n := s.opts.NbTopCandidates
	for _, c := range candidates {
		st, _ := scores.get(c)
		st.contentScore *= 1 - linkDensity(c)
		for t := 0; t < n; t++ {
			if t == len(top) || st.contentScore > scores.score(top[t]) {
				top = append(top, nil)
				copy(top[t+1:], top[t:])
				top[t] = c
				if len(top) > n {
					top = top[:n]
				}
				break
			}
		}
	}
	return top
}

// selectTopCandidate refines the best candidate. The second result is true
// when no usable candidate existed and a wrapper div was made from the
// page's children instead.
func (s *session) selectTopCandidate(scores *scoreTable, page *html.Node, top []*html.Node) (*html.Node, bool) {
	if len(top) == 0 || isTag(top[0], "body") {
		wrapper := createElement("div")
		for page.FirstChild != nil {
			appendChild(wrapper, page.FirstChild)
		}
		page.AppendChild(wrapper)
		scores.initialize(wrapper)
		return wrapper, true
	}

	topCandidate := top[0]
	topScore := scores.score(topCandidate)

	// When several near-equal candidates share an ancestor, that ancestor
	// is the article and the candidates are its parts.
	var alternativeAncestors [][]*html.Node
	for _, c := range top[1:] {
		if topScore > 0 && scores.score(c)/topScore >= 0.75 {
			alternativeAncestors = append(alternativeAncestors, nodeAncestors(c, 0))
		}
	}
	if len(alternativeAncestors) >= minimumTopCandidates {
		for parent := topCandidate.Parent; parent != nil && !isTag(parent, "body") && parent.Type == html.ElementNode; parent = parent.Parent {
			lists := 0
			for _, ancestors := range alternativeAncestors {
				if containsNode(ancestors, parent) {
					lists++
				}
				if lists >= minimumTopCandidates {
					break
				}
			}
			if lists >= minimumTopCandidates {
				topCandidate = parent
				break
			}
		}
	}
	scores.initialize(topCandidate)

	// Climb while the parent keeps a fair share of the score; adopt it as
	// soon as it scores higher.
	lastScore := scores.score(topCandidate)
	threshold := lastScore / 3
	for parent := topCandidate.Parent; parent != nil && parent.Type == html.ElementNode && !isTag(parent, "body"); parent = parent.Parent {
		st, ok := scores.get(parent)
		if !ok {
			continue
		}
		if st.contentScore < threshold {
			break
		}
		if st.contentScore > lastScore {
			topCandidate = parent
			break
		}
		lastScore = st.contentScore
	}

	// An only child is no better than its parent.
	for parent := topCandidate.Parent; parent != nil && parent.Type == html.ElementNode && !isTag(parent, "body") && len(children(parent)) == 1; parent = topCandidate.Parent {
		topCandidate = parent
	}
	scores.initialize(topCandidate)
	return topCandidate, false
}

func containsNode(nodes []*html.Node, n *html.Node) bool {
	for _, x := range nodes {
		if x == n {
			return true
		}
	}
	return false
}

// resolveDir returns the first dir attribute on the top candidate or its
// ancestors.
func resolveDir(topCandidate *html.Node) string {
	for n := topCandidate; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if dir := strings.TrimSpace(getAttr(n, "dir")); dir != "" {
			return dir
		}
	}
	return ""
}

// fallbackDir checks the container, then <body>, then <html>.
func (s *session) fallbackDir(container *html.Node) string {
	for _, n := range []*html.Node{container, s.body(), s.documentElement()} {
		if n == nil {
			continue
		}
		if dir := strings.TrimSpace(getAttr(n, "dir")); dir != "" {
			return dir
		}
	}
	return ""
}
