package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func newExtractor(t *testing.T) *HTMLExtractor {
	t.Helper()
	e, err := New(DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestExtract_StrategyOrder(t *testing.T) {
	long := strings.Repeat("word ", 40)

	tests := []struct {
		name string
		body string
		want string // id of the element expected as content region
	}{
		{
			name: "exact class beats everything",
			body: `<div id="content">x</div><div class="sc-abc">y</div><div id="win" class="sc-2ee9b62c-0 emBANY">z</div>`,
			want: "win",
		},
		{
			name: "exact class needs the whole attribute",
			body: `<div id="partial" class="emBANY sc-2ee9b62c-0">z</div><div id="other" class="plain">q</div>`,
			want: "partial", // still caught by the sc- prefix strategy
		},
		{
			name: "class prefix on any token",
			body: `<div id="content">x</div><div id="win" class="wrapper sc-xyz">y</div>`,
			want: "win",
		},
		{
			name: "data-tag before class names",
			body: `<div id="content">x</div><div class="post">p</div><div id="win" data-tag="post-content">y</div>`,
			want: "win",
		},
		{
			name: "post-content before post",
			body: `<div id="p" class="post">p</div><div id="win" class="post-content">y</div>`,
			want: "win",
		},
		{
			name: "post before id content",
			body: `<div id="content">x</div><div id="win" class="post body">p</div>`,
			want: "win",
		},
		{
			name: "id content",
			body: `<div id="content">x</div>`,
			want: "content",
		},
		{
			name: "largest text fallback",
			body: `<section><div id="small">short</div><div id="win"><p>` + long + `</p></div></section>`,
			want: "win",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(t)
			doc := parse(t, "<html><head><title>T</title></head><body>"+tt.body+"</body></html>")
			sel, _ := e.findContent(doc)
			require.NotNil(t, sel)
			id, _ := sel.Attr("id")
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestExtract_BelowThresholdReturnsNoContent(t *testing.T) {
	e := newExtractor(t)
	// Exactly 100 visible characters: the threshold is strict.
	text := strings.Repeat("a", DefaultMinTextLength)
	html := `<html><head><title>T</title></head><body><div><p>` + text + `</p></div></body></html>`

	doc, err := e.Extract("https://example.com/posts/1", html)
	require.ErrorIs(t, err, ErrNoContent)
	assert.Nil(t, doc)
}

func TestExtract_EmptyRegionReturnsNoText(t *testing.T) {
	e := newExtractor(t)
	html := `<html><head><title>T</title></head><body><div id="content">   <img src="x.png"> </div></body></html>`

	doc, err := e.Extract("https://example.com/posts/1", html)
	require.ErrorIs(t, err, ErrNoText)
	assert.Nil(t, doc)
}

func TestExtract_Document(t *testing.T) {
	e := newExtractor(t)
	html := `<html><head><title>  Part 1/2: Intro </title></head>
<body><div data-tag="post-content"><p>Hello <b>world</b></p></div></body></html>`

	doc, err := e.Extract("https://example.com/posts/1", html)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/posts/1", doc.URL)
	assert.Equal(t, "Part 1-2: Intro", doc.Title)
	assert.Contains(t, doc.HTML, `<meta charset="UTF-8">`)
	assert.Contains(t, doc.HTML, "<h1>Part 1-2: Intro</h1>")
	assert.Contains(t, doc.HTML, `<div data-tag="post-content"><p>Hello <b>world</b></p></div>`)
	assert.Contains(t, doc.HTML, "font-family: Arial, sans-serif")
}

func TestExtract_InvalidSelector(t *testing.T) {
	opts := DefaultOptions()
	opts.Selectors = []string{"div[["}
	_, err := New(opts, zerolog.Nop())
	require.Error(t, err)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "title element", html: `<html><head><title> A/B </title></head></html>`, want: "A-B"},
		{name: "og fallback", html: `<html><head><meta property="og:title" content="From OG"></head></html>`, want: "From OG"},
		{name: "empty title uses og", html: `<html><head><title> </title><meta property="og:title" content="OG"></head></html>`, want: "OG"},
		{name: "placeholder", html: `<html><body>nothing</body></html>`, want: UntitledPost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(parse(t, tt.html), tt.html))
		})
	}
}

func TestWrap_EscapesTitle(t *testing.T) {
	page, err := Wrap(`<script>alert(1)</script>`, "<p>ok</p>")
	require.NoError(t, err)
	assert.NotContains(t, page, "<h1><script>")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, "<p>ok</p>")
}

func TestClassSample(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		b.WriteString(`<div class="c">x</div><div>no class</div>`)
	}
	got := ClassSample(parse(t, b.String()), "div", 10)
	assert.Len(t, got, 10)
	assert.Equal(t, "c", got[0])
}

func TestLargestText_TieFirstWins(t *testing.T) {
	text := strings.Repeat("x", 150)
	doc := parse(t, `<html><body>
<section><div id="first">`+text+`</div></section>
<section><div id="second">`+text+`</div></section>
</body></html>`)

	sel := LargestText("div", DefaultMinTextLength).Find(doc)
	require.Equal(t, 1, sel.Length())
	assert.Equal(t, "first", sel.AttrOr("id", ""))
}

func TestLargestText_LongerLaterWins(t *testing.T) {
	doc := parse(t, `<html><body>
<section><div id="first">`+strings.Repeat("x", 150)+`</div></section>
<section><div id="second">`+strings.Repeat("x", 151)+`</div></section>
</body></html>`)

	sel := LargestText("div", DefaultMinTextLength).Find(doc)
	assert.Equal(t, "second", sel.AttrOr("id", ""))
}
