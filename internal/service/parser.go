package service

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/meshmind/meshmind/internal/pkg/errors"
)

// ParsedDocument is the normalized text pulled out of an uploaded file,
// ready to be chunked.
type ParsedDocument struct {
	Text     string
	Pages    int
	Markdown bool
}

// ParseDocument extracts plain text from a stored document based on its
// filename extension. PDF pages are joined with page markers so chunk
// metadata can recover the page number later.
func ParseDocument(filename string, r io.Reader) (*ParsedDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return parsePDF(data)
	case ".md", ".markdown":
		text := normalizeMarkdown(string(data))
		if text == "" {
			return nil, errors.ErrEmptyContent
		}
		return &ParsedDocument{Text: text, Markdown: true}, nil
	case ".txt", ".text", "":
		text := normalizeText(string(data))
		if text == "" {
			return nil, errors.ErrEmptyContent
		}
		return &ParsedDocument{Text: text}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported extension %s", errors.ErrInvalidFile, ext)
	}
}

const pageMarkerFormat = "--- Page %d ---"

func parsePDF(data []byte) (*ParsedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", errors.ErrInvalidFile, err)
	}
	totalPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages instead of failing the document.
			continue
		}
		text = normalizeText(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, pageMarkerFormat, i)
		sb.WriteString("\n")
		sb.WriteString(text)
	}
	if sb.Len() == 0 {
		return nil, errors.ErrEmptyContent
	}
	return &ParsedDocument{Text: sb.String(), Pages: totalPages}, nil
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// normalizeMarkdown keeps line structure so the markdown chunker can
// still see headings and fenced code blocks.
func normalizeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}
