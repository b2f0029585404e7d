package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docq-labs/docq/internal/core/domain"
)

func testDoc(content string) *domain.Document {
	return &domain.Document{
		ID:         "doc-1",
		SourceName: "test.txt",
		Content:    content,
	}
}

func TestChunk_NilDocument(t *testing.T) {
	c := New()

	chunks, err := c.Chunk(nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, chunks)
}

func TestChunk_EmptyContent(t *testing.T) {
	c := New()

	chunks, err := c.Chunk(testDoc(""))

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_ShortTextProducesSingleChunk(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	content := "A short paragraph well under the chunk size."

	chunks, err := c.Chunk(testDoc(content))

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len([]rune(content)), chunks[0].End)
}

func TestChunk_TextExactlyChunkSize(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(2))

	chunks, err := c.Chunk(testDoc("exactly10!"))

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "exactly10!", chunks[0].Content)
}

func TestChunk_OrdinalsContiguousFromZero(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(10))
	content := strings.Repeat("the quick brown fox jumps over the dog ", 20)

	chunks, err := c.Chunk(testDoc(content))

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i := range chunks {
		assert.Equal(t, i, chunks[i].Ordinal)
		assert.Equal(t, "doc-1", chunks[i].DocumentID)
		assert.Equal(t, "test.txt", chunks[i].SourceName)
	}
}

func TestChunk_CoversFullDocument(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(10))
	content := strings.Repeat("some words separated by spaces here ", 30)
	runes := []rune(content)

	chunks, err := c.Chunk(testDoc(content))

	require.NoError(t, err)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(runes), chunks[len(chunks)-1].End)

	// Consecutive chunks overlap or touch; no gap loses text.
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].Start, chunks[i-1].End,
			"chunk %d starts after chunk %d ends", i, i-1)
		assert.Greater(t, chunks[i].End, chunks[i-1].End)
	}

	// Offsets reproduce the content.
	for i := range chunks {
		assert.Equal(t, string(runes[chunks[i].Start:chunks[i].End]), chunks[i].Content)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(10))
	content := strings.Repeat("repeatable deterministic chunking input ", 10)

	first, err := c.Chunk(testDoc(content))
	require.NoError(t, err)
	second, err := c.Chunk(testDoc(content))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunk_StableIDsAcrossRuns(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(10))
	content := strings.Repeat("identical input produces identical ids ", 5)

	first, err := c.Chunk(testDoc(content))
	require.NoError(t, err)
	second, err := c.Chunk(testDoc(content))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestChunk_DifferentDocumentsGetDifferentChunkIDs(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(10))
	content := "same content in two documents"

	a, err := c.Chunk(&domain.Document{ID: "doc-a", SourceName: "a.txt", Content: content})
	require.NoError(t, err)
	b, err := c.Chunk(&domain.Document{ID: "doc-b", SourceName: "b.txt", Content: content})
	require.NoError(t, err)

	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func TestChunk_PrefersWhitespaceBoundary(t *testing.T) {
	c := New(WithChunkSize(20), WithOverlap(0), WithBoundaryLookback(10))
	// A space sits at position 14, inside the lookback region [10, 20).
	content := "abcdefghijklmn opqrstuvwxyz and then some more text"

	chunks, err := c.Chunk(testDoc(content))

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, "abcdefghijklmn ", chunks[0].Content)
}

func TestChunk_HardCutWithoutWhitespace(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(0), WithBoundaryLookback(4))
	content := strings.Repeat("x", 25)

	chunks, err := c.Chunk(testDoc(content))

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("x", 10), chunks[0].Content)
	assert.Equal(t, strings.Repeat("x", 10), chunks[1].Content)
	assert.Equal(t, strings.Repeat("x", 5), chunks[2].Content)
}

func TestChunk_OverlapRegionsShared(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(4), WithBoundaryLookback(0))
	content := strings.Repeat("y", 30)

	chunks, err := c.Chunk(testDoc(content))

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].End-4, chunks[i].Start)
	}
}

func TestChunk_MultiByteRunesNeverSplit(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(2), WithBoundaryLookback(0))
	content := strings.Repeat("日本語テキスト分割検証", 5)

	chunks, err := c.Chunk(testDoc(content))

	require.NoError(t, err)
	for i := range chunks {
		// Every chunk must remain valid UTF-8 of whole runes.
		assert.Equal(t, chunks[i].End-chunks[i].Start, len([]rune(chunks[i].Content)))
	}
}

func TestNew_ClampsExcessiveOverlap(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(100))

	assert.Equal(t, 25, c.overlap)
}

func TestNew_Defaults(t *testing.T) {
	c := New()

	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultOverlap, c.overlap)
	assert.Equal(t, DefaultBoundaryLookback, c.lookback)
}
