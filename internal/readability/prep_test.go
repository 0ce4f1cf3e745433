package readability

import (
	"strings"
	"testing"
)

func TestReplaceBrs(t *testing.T) {
	s := newTestSession(t, `<html><body><div>foo<br>bar<br> <br><br>abc</div></body></html>`)
	s.replaceBrs(s.body())

	div := firstByTag(s.body(), "div")
	if len(elementsByTag(div, "br")) != 1 {
		t.Fatalf("expected a single br left: %s", innerHTML(div))
	}
	p := firstByTag(div, "p")
	if p == nil || strings.TrimSpace(textContent(p)) != "abc" {
		t.Fatalf("expected trailing text moved into a paragraph: %s", innerHTML(div))
	}
	if div.LastChild != p {
		t.Fatalf("expected paragraph to be the last child: %s", innerHTML(div))
	}
}

func TestReplaceBrs_StopsAtBlock(t *testing.T) {
	s := newTestSession(t, `<html><body><div>one<br><br>two <em>three</em><div>block</div>four</div></body></html>`)
	s.replaceBrs(s.body())
	p := firstByTag(s.body(), "p")
	if p == nil {
		t.Fatalf("expected a paragraph")
	}
	if got := strings.TrimSpace(textContent(p)); got != "two three" {
		t.Fatalf("expected inline run only, got %q", got)
	}
}

func TestPrepDocument(t *testing.T) {
	s := newTestSession(t, `<html><head><style>p{}</style></head><body><!-- note --><font color="red">old</font><p>x</p></body></html>`)
	s.prepDocument()
	if len(elementsByTag(s.doc, "style")) != 0 {
		t.Fatalf("expected styles removed")
	}
	if len(elementsByTag(s.doc, "font")) != 0 {
		t.Fatalf("expected font retagged")
	}
	span := firstByTag(s.doc, "span")
	if span == nil || getAttr(span, "color") != "red" {
		t.Fatalf("expected span with attributes kept")
	}
	if strings.Contains(render(t, s.doc), "note") {
		t.Fatalf("expected comments removed")
	}
}

func TestUnwrapNoscriptImages(t *testing.T) {
	s := newTestSession(t, `<html><body><p><img class="lazy" data-src="a.jpg"><noscript><img src="real.jpg"></noscript></p><img alt="no source"></body></html>`)
	s.unwrapNoscriptImages()

	imgs := elementsByTag(s.doc, "img")
	if len(imgs) != 1 {
		t.Fatalf("expected placeholder without source removed and lazy image replaced, got %d", len(imgs))
	}
	if getAttr(imgs[0], "src") != "real.jpg" || getAttr(imgs[0], "data-src") != "a.jpg" {
		t.Fatalf("expected noscript image with lazy attributes copied, got %v", imgs[0].Attr)
	}
}

func TestSetNodeTagKeepsIdentity(t *testing.T) {
	s := newTestSession(t, `<html><body><div id="x" class="c">text</div></body></html>`)
	div := firstByTag(s.body(), "div")
	scores := newScoreTable(flagWeightClasses)
	scores.initialize(div)

	p := s.setNodeTag(div, "p")
	if p != div || !isTag(p, "p") {
		t.Fatalf("expected retag in place")
	}
	if _, ok := scores.get(p); !ok {
		t.Fatalf("expected score to survive retagging")
	}
	if idOf(p) != "x" || className(p) != "c" {
		t.Fatalf("expected attributes kept")
	}
}
