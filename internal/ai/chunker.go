package ai

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Chunker splits document text into bounded pieces. Plain text is cut into
// fixed-size windows with overlap; markdown is split along block boundaries
// so a chunk never starts mid-sentence inside a code block or list.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

func (c *Chunker) ChunkText(input string) []string {
	runes := []rune(input)
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func (c *Chunker) ChunkMarkdown(input string) []string {
	md := goldmark.New()
	reader := text.NewReader([]byte(input))
	doc := md.Parser().Parse(reader)

	var chunks []string
	var current []string
	var currentLen int
	var heading string

	flush := func() {
		if len(current) == 0 {
			return
		}
		content := strings.Join(current, "\n\n")
		if heading != "" {
			content = "Heading: " + heading + "\n" + content
		}
		chunks = append(chunks, content)
		current = nil
		currentLen = 0
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				flush()
				heading = string(n.Text(reader.Source()))
				continue
			}
			txt := string(n.Text(reader.Source()))
			current = append(current, txt)
			currentLen += len(txt)
		case *ast.FencedCodeBlock:
			lang := string(n.Language(reader.Source()))
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			block := "```" + lang + "\n" + code.String() + "```"
			if currentLen+len(block) > c.size {
				flush()
			}
			current = append(current, block)
			currentLen += len(block)
		default:
			txt := extractText(node, reader.Source())
			if txt == "" {
				continue
			}
			// Oversized blocks fall back to the fixed-size splitter.
			if len(txt) > c.size {
				flush()
				chunks = append(chunks, c.ChunkText(txt)...)
				continue
			}
			if currentLen+len(txt) > c.size {
				flush()
			}
			current = append(current, txt)
			currentLen += len(txt)
		}
	}
	flush()
	return chunks
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
