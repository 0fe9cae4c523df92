package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
)

func TestParseDocumentPlainText(t *testing.T) {
	parsed, err := ParseDocument("notes.txt", strings.NewReader("  hello\n\nworld  "))
	require.NoError(t, err)
	require.Equal(t, "hello world", parsed.Text)
	require.False(t, parsed.Markdown)
}

func TestParseDocumentMarkdownKeepsStructure(t *testing.T) {
	input := "# Title\r\n\r\nBody line.\r\n"
	parsed, err := ParseDocument("readme.md", strings.NewReader(input))
	require.NoError(t, err)
	require.True(t, parsed.Markdown)
	require.Contains(t, parsed.Text, "# Title")
	require.Contains(t, parsed.Text, "\n")
	require.NotContains(t, parsed.Text, "\r")
}

func TestParseDocumentEmptyContent(t *testing.T) {
	_, err := ParseDocument("empty.txt", strings.NewReader("   "))
	require.ErrorIs(t, err, appErr.ErrEmptyContent)
}

func TestParseDocumentUnsupportedExtension(t *testing.T) {
	_, err := ParseDocument("image.png", strings.NewReader("binary"))
	require.ErrorIs(t, err, appErr.ErrInvalidFile)
}

func TestParseDocumentInvalidPDF(t *testing.T) {
	_, err := ParseDocument("broken.pdf", strings.NewReader("not a pdf"))
	require.ErrorIs(t, err, appErr.ErrInvalidFile)
}

func TestNormalizeTextStripsNulBytes(t *testing.T) {
	require.Equal(t, "a b", normalizeText("a\x00b"))
}
