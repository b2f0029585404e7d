// Package domain defines the core business entities for docq.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque uploaded bytes before extraction
//   - Document: An extracted document with its full text
//   - Chunk: A retrievable unit within a document
//   - IndexEntry: A chunk paired with its embedding, the persisted unit
//   - QueryResult: A similarity-search hit
//   - Answer: A synthesised, citation-grounded response
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
