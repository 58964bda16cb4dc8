package extract

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

var pageTemplate = template.Must(template.New("post").Parse(`<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.6; }
        h1, h2, h3 { color: #333; }
        img { max-width: 100%; height: auto; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    {{.Content}}
</body>
</html>
`))

// Wrap places an HTML fragment in a standalone page headed by title.
// The title is escaped; the fragment is inserted as-is.
func Wrap(title, fragment string) (string, error) {
	var b strings.Builder
	err := pageTemplate.Execute(&b, struct {
		Title   string
		Content template.HTML
	}{
		Title:   title,
		Content: template.HTML(fragment), // #nosec G203 -- fragment is the page's own markup
	})
	if err != nil {
		return "", fmt.Errorf("rendering page template: %w", err)
	}
	return b.String(), nil
}

// Title returns the page title with slashes replaced by hyphens.
// Without a usable <title> it falls back to og:title, then UntitledPost.
func Title(doc *goquery.Document, html string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		og := opengraph.NewOpenGraph()
		if err := og.ProcessHTML(strings.NewReader(html)); err == nil {
			title = strings.TrimSpace(og.Title)
		}
	}
	if title == "" {
		return UntitledPost
	}
	return strings.ReplaceAll(title, "/", "-")
}
