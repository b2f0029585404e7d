// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor: Converts uploaded bytes into normalised text
//   - ExtractorRegistry: Selects the extractor for a MIME type
//   - VectorIndex: Stores embeddings and serves similarity search
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Generates grounded answers
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
