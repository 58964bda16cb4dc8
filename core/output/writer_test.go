package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Q&A: What | Why? / How", want: "Q&A_ What _ Why - How"},
		{in: "  padded  ", want: "padded"},
		{in: `say "hi" <now>`, want: "say 'hi' _now_"},
		{in: `a\b*c`, want: "a_bc"},
		{in: "Déjà vu: été", want: "Déjà vu_ été"},
		{in: "plain", want: "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilename_NoReservedCharacters(t *testing.T) {
	in := `a:b|c?d/e*f<g>h"i\j`
	got := SanitizeFilename(in)
	assert.False(t, strings.ContainsAny(got, `:|?/*<>"\`), got)
	// Characters outside the table keep their relative order.
	assert.Equal(t, "a_b_cd-ef_g_h'i_j", got)
}

func TestSanitizeFilename_Cap(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 400))
	assert.Equal(t, MaxSanitizedLength, utf8.RuneCountInString(got))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "héllo", Truncate("héllo", 50))
	assert.Equal(t, "", Truncate("héllo", 0))
}

func TestWriter_LongTitleSharesPrefix(t *testing.T) {
	w, err := New(t.TempDir(), true)
	require.NoError(t, err)

	title := strings.Repeat("Long title: part ", 10)
	htmlPath, err := w.WriteHTML(title, "<html></html>")
	require.NoError(t, err)
	pdfPath, err := w.WriteRendered(title, []byte("%PDF-1.4"), ".pdf")
	require.NoError(t, err)

	htmlBase := strings.TrimSuffix(filepath.Base(htmlPath), ".html")
	pdfBase := strings.TrimSuffix(filepath.Base(pdfPath), ".pdf")
	assert.Equal(t, htmlBase, pdfBase)
	assert.Equal(t, NameLength, utf8.RuneCountInString(htmlBase))
	assert.Equal(t, Truncate(SanitizeFilename(title), NameLength), htmlBase)

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestWriter_NoSanitize(t *testing.T) {
	w, err := New(t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, "What? now", w.BaseName("What? now"))
}

func TestWriter_WritePage(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "nested", "out"), true)
	require.NoError(t, err)

	path, err := w.WritePage("reference_page", "<html>raw</html>")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "out", "reference_page.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>raw</html>", string(data))
}

func TestWriter_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, true)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, err = w.WriteHTML("title", "<html></html>")
	require.Error(t, err)
}
