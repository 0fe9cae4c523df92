package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkTextSplitsWithOverlap(t *testing.T) {
	chunker := NewChunker(10, 2)
	input := strings.Repeat("a", 26)
	chunks := chunker.ChunkText(input)
	// Step is size-overlap = 8, so windows start at 0, 8 and 16.
	require.Len(t, chunks, 3)
	require.Equal(t, strings.Repeat("a", 10), chunks[0])
	require.Equal(t, strings.Repeat("a", 10), chunks[2])
}

func TestChunkTextEmptyInput(t *testing.T) {
	chunker := NewChunker(100, 10)
	require.Nil(t, chunker.ChunkText(""))
	require.Nil(t, chunker.ChunkText("   "))
}

func TestChunkTextShortInputSingleChunk(t *testing.T) {
	chunker := NewChunker(100, 10)
	chunks := chunker.ChunkText("hello world")
	require.Equal(t, []string{"hello world"}, chunks)
}

func TestChunkTextRuneSafe(t *testing.T) {
	chunker := NewChunker(4, 0)
	chunks := chunker.ChunkText("日本語のテキスト")
	require.Len(t, chunks, 2)
	require.Equal(t, "日本語の", chunks[0])
	require.Equal(t, "テキスト", chunks[1])
}

func TestChunkMarkdownSplitsOnHeadings(t *testing.T) {
	chunker := NewChunker(1000, 0)
	input := "# Intro\n\nSome intro text.\n\n## Details\n\nMore detail here."
	chunks := chunker.ChunkMarkdown(input)
	require.Len(t, chunks, 2)
	require.True(t, strings.HasPrefix(chunks[0], "Heading: Intro\n"))
	require.Contains(t, chunks[0], "Some intro text.")
	require.True(t, strings.HasPrefix(chunks[1], "Heading: Details\n"))
	require.Contains(t, chunks[1], "More detail here.")
}

func TestChunkMarkdownKeepsCodeBlockWhole(t *testing.T) {
	chunker := NewChunker(1000, 0)
	input := "# Code\n\n```go\nfunc main() {}\n```\n"
	chunks := chunker.ChunkMarkdown(input)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0], "```go\nfunc main() {}\n```")
}

func TestChunkMarkdownOversizedParagraphFallsBack(t *testing.T) {
	chunker := NewChunker(50, 0)
	input := "# Big\n\n" + strings.Repeat("word ", 40)
	chunks := chunker.ChunkMarkdown(input)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.NotEmpty(t, chunk)
	}
}
