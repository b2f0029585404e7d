package domain

// Answer is a synthesised response grounded in retrieved chunks.
// Answers are derived per question and never persisted.
type Answer struct {
	// Text is the model-generated answer.
	Text string

	// CitedChunkIDs lists the chunks whose text was supplied as
	// context, in citation-marker order.
	CitedChunkIDs []string
}

// Citation identifies a retrieved passage in an answer prompt.
type Citation struct {
	// Marker is the 1-based citation number used in the prompt.
	Marker int

	// SourceName is the originating document's filename.
	SourceName string

	// Ordinal is the chunk's position within the document.
	Ordinal int

	// ChunkID is the cited chunk.
	ChunkID string
}
