package readability

import (
	"math"
	"testing"
)

func TestTextSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Hello World", "hello world", 1},
		{"abc", "xyz", 0},
		{"", "xyz", 0},
		{"one two", "one three", 1 - float64(len("three"))/float64(len("one three"))},
	}
	for _, tc := range cases {
		if got := textSimilarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("textSimilarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestUnescapeHTMLEntities(t *testing.T) {
	got := unescapeHTMLEntities("&lt;b&gt; &amp; &quot;q&quot; &apos;a&apos; &#39; &#x41; &#0;")
	want := "<b> & \"q\" 'a' ' A �"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCommaCount(t *testing.T) {
	if got := commaCount("a, b，c، d"); got != 3 {
		t.Fatalf("expected 3 commas, got %d", got)
	}
}

func TestCharCountCountsRunes(t *testing.T) {
	if got := charCount("héllo"); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestLinkDensity(t *testing.T) {
	el := container(t, `<div>0123456789<a href="/x">0123456789</a><a href="#frag">0123456789</a></div>`)
	want := (10 + 10*0.3) / 30
	if got := linkDensity(el); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := linkDensity(container(t, `<div></div>`)); got != 0 {
		t.Fatalf("expected 0 for empty node, got %v", got)
	}
}

func TestClassWeight(t *testing.T) {
	el := container(t, `<div class="article-body" id="sidebar">x</div>`)
	if got := classWeight(el, flagWeightClasses); got != 0 {
		t.Fatalf("expected +25 and -25 to cancel, got %d", got)
	}
	el = container(t, `<div class="comment">x</div>`)
	if got := classWeight(el, flagWeightClasses); got != -25 {
		t.Fatalf("expected -25, got %d", got)
	}
	if got := classWeight(el, 0); got != 0 {
		t.Fatalf("expected 0 without class weighting, got %d", got)
	}
}

func TestScoreTableInitializeOnce(t *testing.T) {
	el := container(t, `<div class="content">x</div>`)
	scores := newScoreTable(flagWeightClasses)
	st := scores.initialize(el)
	if st.contentScore != 30 {
		t.Fatalf("expected div base 5 plus positive class 25, got %v", st.contentScore)
	}
	st.contentScore += 7
	if again := scores.initialize(el); again != st || again.contentScore != 37 {
		t.Fatalf("expected initialize to keep existing state")
	}
}

func TestIsProbablyVisible(t *testing.T) {
	cases := map[string]bool{
		`<div>x</div>`:                                           true,
		`<div style="display: none">x</div>`:                     false,
		`<div style="visibility:hidden">x</div>`:                 false,
		`<div hidden>x</div>`:                                    false,
		`<div aria-hidden="true">x</div>`:                        false,
		`<div aria-hidden="true" class="fallback-image">x</div>`: true,
	}
	for markup, want := range cases {
		if got := isProbablyVisible(container(t, markup)); got != want {
			t.Fatalf("%s: expected %v, got %v", markup, want, got)
		}
	}
}

func TestPhrasingContent(t *testing.T) {
	if !isPhrasingContent(container(t, `<a href="/x"><b>bold</b></a>`)) {
		t.Fatalf("expected link with inline content to be phrasing")
	}
	if isPhrasingContent(container(t, `<a href="/x"><div>block</div></a>`)) {
		t.Fatalf("expected link with block content not to be phrasing")
	}
	if isPhrasingContent(container(t, `<div>x</div>`)) {
		t.Fatalf("expected div not to be phrasing")
	}
}

func TestNextNodeSkipsSubtree(t *testing.T) {
	el := container(t, `<div><section><p>a</p></section><aside>b</aside></div>`)
	section := firstByTag(el, "section")
	if got := nextNode(section, false); !isTag(got, "p") {
		t.Fatalf("expected descent into p, got %q", tagName(got))
	}
	if got := nextNode(section, true); !isTag(got, "aside") {
		t.Fatalf("expected sibling aside, got %q", tagName(got))
	}
	p := firstByTag(el, "p")
	if got := removeAndGetNext(p); !isTag(got, "aside") || p.Parent != nil {
		t.Fatalf("expected p detached and walk to continue at aside")
	}
}
