// Package sqlite provides a persistent vector index backed by SQLite.
//
// Every entry stores the embedding alongside the chunk text and its
// provenance, so the index is the sole owner of persisted corpus
// state and survives process restart. Similarity search is exact
// brute-force cosine over the stored vectors, which is ample for the
// corpus sizes a document-QA assistant handles.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docq-labs/docq/internal/adapters/driven/index/sqlite/migrations"
	"github.com/docq-labs/docq/internal/core/domain"
	"github.com/docq-labs/docq/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// metaDimensions is the index_meta key recording dimensionality.
const metaDimensions = "dimensions"

// metaModel is the index_meta key recording the embedding model name.
const metaModel = "embedding_model"

// Index is a SQLite-backed implementation of driven.VectorIndex.
type Index struct {
	db   *sql.DB
	path string

	// configuredModel is recorded in index_meta on first write.
	configuredModel string

	// mu serialises writes so dimensionality establishment and
	// same-document delete/upsert pairs never interleave.
	mu      sync.Mutex
	dims    int
	nextSeq int64
}

// NewIndex opens (or creates) the index at dataDir/index.db.
//
// configuredDims is the dimensionality of the currently configured
// embedding model; 0 skips the check. Opening a persisted index whose
// recorded dimensionality disagrees is fatal: the operator must
// re-index with the new model rather than mix vector spaces.
// configuredModel is recorded for diagnostics the first time the
// index is written.
func NewIndex(dataDir string, configuredDims int, configuredModel string) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docq", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for concurrent readers during ingestion.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	x := &Index{
		db:   db,
		path: dbPath,
	}

	if err := x.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := x.load(configuredDims, configuredModel); err != nil {
		db.Close()
		return nil, err
	}

	return x, nil
}

// load reads persisted dimensionality and the next sequence number.
func (x *Index) load(configuredDims int, configuredModel string) error {
	var value string
	err := x.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", metaDimensions).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh index; dimensionality established on first upsert.
	case err != nil:
		return fmt.Errorf("reading index meta: %w", err)
	default:
		dims, convErr := strconv.Atoi(value)
		if convErr != nil || dims <= 0 {
			return fmt.Errorf("%w: invalid dimensionality %q in %s", domain.ErrCorruptIndex, value, x.path)
		}
		x.dims = dims
	}

	if x.dims != 0 && configuredDims != 0 && x.dims != configuredDims {
		var model string
		_ = x.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", metaModel).Scan(&model)
		return fmt.Errorf(
			"index %s was built with model %q; re-indexing required: %w",
			x.path, model, &domain.DimensionMismatchError{Want: configuredDims, Got: x.dims},
		)
	}

	if err := x.db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM entries").Scan(&x.nextSeq); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCorruptIndex, err)
	}
	x.nextSeq++

	x.configuredModel = configuredModel
	return nil
}

// Upsert inserts entries in a single transaction.
func (x *Index) Upsert(ctx context.Context, entries []domain.IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	count, err := x.upsertTx(tx, entries)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return count, nil
}

// upsertTx validates and writes entries; caller holds mu and commits.
func (x *Index) upsertTx(tx *sql.Tx, entries []domain.IndexEntry) (int, error) {
	// Validate the whole batch up front so a rejected entry never
	// leaves a partial write behind.
	dims := x.dims
	for i := range entries {
		got := len(entries[i].Vector)
		if got == 0 {
			return 0, domain.ErrInvalidInput
		}
		if dims == 0 {
			dims = got
			continue
		}
		if got != dims {
			return 0, &domain.DimensionMismatchError{Want: dims, Got: got}
		}
	}

	if x.dims == 0 {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO index_meta (key, value) VALUES (?, ?), (?, ?)",
			metaDimensions, strconv.Itoa(dims),
			metaModel, x.configuredModel,
		); err != nil {
			return 0, fmt.Errorf("recording dimensionality: %w", err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (chunk_id, document_id, source_name, ordinal, content, start_pos, end_pos, vector, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			source_name = excluded.source_name,
			ordinal     = excluded.ordinal,
			content     = excluded.content,
			start_pos   = excluded.start_pos,
			end_pos     = excluded.end_pos,
			vector      = excluded.vector
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	seq := x.nextSeq
	for i := range entries {
		c := entries[i].Chunk
		if _, err := stmt.Exec(
			c.ID, c.DocumentID, c.SourceName, c.Ordinal, c.Content, c.Start, c.End,
			float32SliceToBytes(entries[i].Vector), seq,
		); err != nil {
			return 0, fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
		seq++
	}

	x.dims = dims
	x.nextSeq = seq
	return len(entries), nil
}

// Search brute-forces cosine similarity over all stored vectors.
func (x *Index) Search(ctx context.Context, query []float32, topK int, minScore float64) ([]domain.QueryResult, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, source_name, ordinal, content, start_pos, end_pos, vector
		FROM entries ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	queryNorm := vectorNorm(query)

	var scored []domain.QueryResult
	checkedDims := false

	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.SourceName, &c.Ordinal, &c.Content, &c.Start, &c.End, &blob); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		vector := bytesToFloat32Slice(blob)
		if !checkedDims {
			if len(query) != len(vector) {
				return nil, &domain.DimensionMismatchError{Want: len(vector), Got: len(query)}
			}
			checkedDims = true
		}

		score := cosine(query, queryNorm, vector)
		if score < minScore {
			continue
		}
		scored = append(scored, domain.QueryResult{Chunk: c, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	// Rows already arrive in insertion order, so a stable sort keeps
	// earlier-inserted entries first on score ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK < 0 {
		topK = 0
	}
	if len(scored) > topK {
		scored = scored[:topK]
	}
	if scored == nil {
		scored = []domain.QueryResult{}
	}
	return scored, nil
}

// Delete removes all entries belonging to a document.
func (x *Index) Delete(ctx context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, err := x.db.ExecContext(ctx, "DELETE FROM entries WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// Replace swaps a document's entries in one transaction.
func (x *Index) Replace(ctx context.Context, documentID string, entries []domain.IndexEntry) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE document_id = ?", documentID); err != nil {
		return 0, fmt.Errorf("delete document %s: %w", documentID, err)
	}

	count := 0
	if len(entries) > 0 {
		count, err = x.upsertTx(tx, entries)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return count, nil
}

// Stats reports corpus totals.
func (x *Index) Stats(ctx context.Context) (driven.IndexStats, error) {
	var stats driven.IndexStats
	err := x.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT document_id) FROM entries",
	).Scan(&stats.Chunks, &stats.Documents)
	if err != nil {
		return driven.IndexStats{}, fmt.Errorf("index stats: %w", err)
	}
	stats.Dimensions = x.Dimensions()
	return stats, nil
}

// Dimensions returns the established dimensionality, 0 when unset.
func (x *Index) Dimensions() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.dims
}

// Path returns the database file path.
func (x *Index) Path() string {
	return x.path
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// migrate runs all pending migrations.
func (x *Index) migrate(fsys embed.FS) error {
	_, err := x.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := x.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := x.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := x.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a vector to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// vectorNorm returns the L2 norm of v.
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity. Zero-magnitude vectors score 0
// rather than dividing by zero.
func cosine(query []float32, queryNorm float64, v []float32) float64 {
	norm := vectorNorm(v)
	if queryNorm == 0 || norm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(v[i])
	}
	return dot / (queryNorm * norm)
}
