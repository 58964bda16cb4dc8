package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string
		excludes []string
	}{
		{
			name:     "fragment",
			html:     `<div><h2>Heading</h2><p>Some <strong>bold</strong> text</p></div>`,
			contains: []string{"## Heading", "**bold**"},
		},
		{
			name: "full page drops head",
			html: `<html><head><title>Head Title</title><style>body{color:red}</style></head>
<body><h1>Body Title</h1><ul><li>one</li><li>two</li></ul></body></html>`,
			contains: []string{"# Body Title", "- one", "- two"},
			excludes: []string{"Head Title", "color:red"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := New().Normalize(tt.html)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, md, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, md, s)
			}
		})
	}
}
