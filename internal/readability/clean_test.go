package readability

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// container parses body markup and returns its first element, detached.
func container(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc := mustParse(t, "<html><body>"+markup+"</body></html>")
	body := firstByTag(doc, "body")
	el := firstElementChild(body)
	if el == nil {
		t.Fatalf("no element in %q", markup)
	}
	detach(el)
	return el
}

func testSanitizer(t *testing.T, f flags) *sanitizer {
	t.Helper()
	return newSanitizer(newTestSession(t, "<html><head></head><body></body></html>"), f)
}

func TestPrepArticle_RemovesLinkHeavyDiv(t *testing.T) {
	link := strings.Repeat("x", 40)
	el := container(t, `<div><p>`+paraOne+`</p><div id="links"><span>0123456789<a href="/more">`+link+`</a></span></div></div>`)
	testSanitizer(t, attemptFlags[0]).prepArticle(el)

	out := innerHTML(el)
	if strings.Contains(out, link) {
		t.Fatalf("expected link-heavy div removed: %s", out)
	}
	if !strings.Contains(out, "old mill") {
		t.Fatalf("expected paragraph kept: %s", out)
	}
}

func TestPrepArticle_LinkDensityModifier(t *testing.T) {
	link := strings.Repeat("x", 40)
	el := container(t, `<div><p>`+paraOne+`</p><div id="links"><span>0123456789<a href="/more">`+link+`</a></span></div></div>`)
	s := testSanitizer(t, attemptFlags[0])
	s.s.opts.LinkDensityModifier = 0.7
	s.prepArticle(el)
	if !strings.Contains(innerHTML(el), link) {
		t.Fatalf("expected div kept with raised link density limit")
	}
}

func TestPrepArticle_NoConditionalCleaningWithoutFlag(t *testing.T) {
	link := strings.Repeat("x", 40)
	el := container(t, `<div><p>`+paraOne+`</p><div>0123456789<a href="/more">`+link+`</a></div></div>`)
	testSanitizer(t, 0).prepArticle(el)
	if !strings.Contains(innerHTML(el), link) {
		t.Fatalf("expected div kept without conditional cleaning")
	}
}

func TestPrepArticle_Idempotent(t *testing.T) {
	el := container(t, `<div><h2>A Section Heading</h2><p>`+paraOne+`</p>
<p>`+paraTwo+`<img src="https://example.com/a.jpg"></p>
<ul><li>`+paraThree+`</li><li>`+paraTwo+`</li></ul></div>`)
	s := testSanitizer(t, attemptFlags[0])
	s.prepArticle(el)
	first := innerHTML(el)
	s.prepArticle(el)
	if second := innerHTML(el); second != first {
		t.Fatalf("second pass changed output:\n%s\n%s", first, second)
	}
}

func TestPrepArticle_IdempotentWhenInnerRemovalExposesContainer(t *testing.T) {
	// The image-only div goes first; without it the table is link heavy.
	el := container(t, `<div><table><tr><td><p>`+strings.Repeat("t", 40)+`</p></td></tr>`+
		`<tr><td><p><a href="/x">`+strings.Repeat("l", 20)+`</a>abcde</p>`+
		`<div><img src="/a.png"><img src="/b.png">`+strings.Repeat("c", 60)+`</div></td></tr></table></div>`)
	s := testSanitizer(t, attemptFlags[0])
	s.prepArticle(el)
	first := innerHTML(el)
	s.prepArticle(el)
	if second := innerHTML(el); second != first {
		t.Fatalf("second pass changed output:\n%s\n%s", first, second)
	}
}

func TestPrepArticle_RemovesBoilerplateElements(t *testing.T) {
	el := container(t, `<div><div><p>`+paraOne+`</p>
<div class="share-tools">Share on Twitter</div>
<form><input type="text"><button>Go</button></form>
<aside>Related stories</aside>
<footer>Footer text</footer>
<iframe src="https://ads.example.com/frame"></iframe>
<iframe src="https://www.youtube.com/embed/abc"></iframe>
</div></div>`)
	testSanitizer(t, attemptFlags[0]).prepArticle(el)
	out := innerHTML(el)
	for _, unwanted := range []string{"Share on Twitter", "<form", "Related stories", "Footer text", "ads.example.com"} {
		if strings.Contains(out, unwanted) {
			t.Fatalf("did not expect %q in %s", unwanted, out)
		}
	}
	if !strings.Contains(out, "youtube.com/embed/abc") {
		t.Fatalf("expected video iframe kept: %s", out)
	}
}

func TestPrepArticle_ImageGalleryListKept(t *testing.T) {
	el := container(t, `<div><p>`+paraOne+`</p><ul><li><img src="a.jpg"></li><li><img src="b.jpg"></li><li><img src="c.jpg"></li></ul></div>`)
	testSanitizer(t, attemptFlags[0]).prepArticle(el)
	if got := len(elementsByTag(el, "img")); got != 3 {
		t.Fatalf("expected gallery kept, got %d images", got)
	}
}

func TestPrepArticle_NegativeWeightRemoved(t *testing.T) {
	el := container(t, `<div><p>`+paraOne+`</p><div class="comment-list"><p>`+paraTwo+`</p></div><h2 class="sidebar">Elsewhere</h2></div>`)
	testSanitizer(t, attemptFlags[0]).prepArticle(el)
	out := innerHTML(el)
	if strings.Contains(out, "midday") || strings.Contains(out, "Elsewhere") {
		t.Fatalf("expected negative weighted nodes removed: %s", out)
	}
}

func TestPrepArticle_AdTextRemoved(t *testing.T) {
	el := container(t, `<div><p>`+paraOne+`</p><div>Advertisement</div><div>Loading...</div></div>`)
	testSanitizer(t, attemptFlags[0]).prepArticle(el)
	out := innerHTML(el)
	if strings.Contains(out, "Advertisement") || strings.Contains(out, "Loading") {
		t.Fatalf("expected ad placeholders removed: %s", out)
	}
}

func TestPrepArticle_HeadingsAndParagraphFixups(t *testing.T) {
	el := container(t, `<div><h1>Top Heading</h1><p>`+paraOne+`</p><p> </p><p><img src="x.png"></p>text<br><p>`+paraTwo+`</p></div>`)
	testSanitizer(t, 0).prepArticle(el)
	if len(elementsByTag(el, "h1")) != 0 || len(elementsByTag(el, "h2")) != 1 {
		t.Fatalf("expected h1 retagged to h2: %s", innerHTML(el))
	}
	if got := len(elementsByTag(el, "p")); got != 3 {
		t.Fatalf("expected empty paragraph removed, got %d paragraphs: %s", got, innerHTML(el))
	}
	if len(elementsByTag(el, "br")) != 0 {
		t.Fatalf("expected br before paragraph removed: %s", innerHTML(el))
	}
}

func TestPrepArticle_SingleCellTables(t *testing.T) {
	el := container(t, `<div><table><tr><td>Just <b>inline</b> text</td></tr></table><table><tr><td><div>block</div></td></tr></table></div>`)
	testSanitizer(t, 0).prepArticle(el)
	if len(elementsByTag(el, "table")) != 0 {
		t.Fatalf("expected tables collapsed: %s", innerHTML(el))
	}
	kids := children(el)
	if len(kids) != 2 || !isTag(kids[0], "p") || !isTag(kids[1], "div") {
		t.Fatalf("unexpected structure: %s", innerHTML(el))
	}
}

func TestIsDataTable(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		want   bool
	}{
		{"presentation", `<table role="presentation"><tr><th>a</th></tr></table>`, false},
		{"summary", `<table summary="numbers"><tr><td>a</td><td>b</td></tr></table>`, true},
		{"header cells", `<table><tr><th>a</th><th>b</th></tr><tr><td>1</td><td>2</td></tr></table>`, true},
		{"caption", `<table><caption>Totals</caption><tr><td>a</td></tr></table>`, true},
		{"single row", `<table><tr><td>a</td><td>b</td><td>c</td></tr></table>`, false},
		{"wide", `<table><tr><td>1</td><td>2</td><td>3</td><td>4</td><td>5</td></tr><tr><td>1</td><td>2</td><td>3</td><td>4</td><td>5</td></tr></table>`, true},
		{"small grid", `<table><tr><td>1</td><td>2</td></tr><tr><td>3</td><td>4</td></tr></table>`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isDataTable(container(t, tc.markup)); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFixLazyImages(t *testing.T) {
	el := container(t, `<div>
<img class="lazy" src="data:image/gif;base64,R0lGODlhAQABAAAAACw=" data-src="https://example.com/real.jpg">
<img data-srcset="https://example.com/a.jpg 1x, https://example.com/b.jpg 2x">
<figure data-original="https://example.com/fig.png"></figure>
</div>`)
	fixLazyImages(el)
	imgs := elementsByTag(el, "img")
	if len(imgs) != 3 {
		t.Fatalf("expected an img created inside the figure, got %d", len(imgs))
	}
	if got := getAttr(imgs[0], "src"); got != "https://example.com/real.jpg" {
		t.Fatalf("expected lazy src promoted, got %q", got)
	}
	if got := getAttr(imgs[1], "srcset"); !strings.HasPrefix(got, "https://example.com/a.jpg 1x") {
		t.Fatalf("expected srcset promoted, got %q", got)
	}
	if got := getAttr(imgs[2], "src"); got != "https://example.com/fig.png" {
		t.Fatalf("expected figure img src, got %q", got)
	}
}

func TestCleanStyles(t *testing.T) {
	el := container(t, `<div style="color:red" align="center"><table width="10" border="1"><tr><td>x</td></tr></table><svg style="fill:red"></svg></div>`)
	cleanStyles(el)
	if hasAttr(el, "style") || hasAttr(el, "align") {
		t.Fatalf("expected presentational attributes removed")
	}
	table := firstByTag(el, "table")
	if hasAttr(table, "width") || hasAttr(table, "border") {
		t.Fatalf("expected table size attributes removed")
	}
	if svg := firstByTag(el, "svg"); !hasAttr(svg, "style") {
		t.Fatalf("expected svg left untouched")
	}
}
