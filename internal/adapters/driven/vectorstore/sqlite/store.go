// Package sqlite provides a durable implementation of driven.VectorStore
// backed by SQLite. Embeddings are stored as little-endian float32 BLOBs;
// a monotonic seq column preserves insertion order for distance tie-breaks.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lumina-labs/askdoc-cli/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db        *sql.DB
	path      string
	dimension int
}

// NewStore creates (or opens) a vector store at dataDir for vectors of
// the given dimension. If dataDir is empty, defaults to ~/.askdoc/data.
func NewStore(dataDir string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidArgument, dimension)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askdoc", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{
		db:        db,
		path:      dbPath,
		dimension: dimension,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStoreUnavailable, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Dimensions returns the configured vector dimension.
func (s *Store) Dimensions() int {
	return s.dimension
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
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
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Insert adds a batch of records in a single transaction.
func (s *Store) Insert(ctx context.Context, records []driven.Record) ([]string, error) {
	// Validate the whole batch before touching the database.
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return nil, domain.NewDimensionMismatchError(s.dimension, len(r.Vector))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %w", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, document_id, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: preparing statement: %w", domain.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(records))
	for _, r := range records {
		id := uuid.New().String()
		metadata := coerceMetadata(r.Metadata, id)

		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling metadata: %w", err)
		}
		docID, _ := metadata["document_id"].(string)

		if _, err := stmt.ExecContext(ctx, id, docID, r.Text,
			string(metadataJSON), float32SliceToBytes(r.Vector)); err != nil {
			return nil, fmt.Errorf("%w: inserting record: %w", domain.ErrStoreUnavailable, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing transaction: %w", domain.ErrStoreUnavailable, err)
	}
	return ids, nil
}

// Query returns up to k nearest records by cosine distance, ties broken
// by insertion order.
func (s *Store) Query(ctx context.Context, vector []float32, k int, filter driven.Filter) ([]driven.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(vector) != s.dimension {
		return nil, domain.NewDimensionMismatchError(s.dimension, len(vector))
	}

	rows, err := s.queryCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	type scored struct {
		row      candidate
		distance float64
	}
	candidates := make([]scored, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, scored{row: row, distance: cosineDistance(vector, row.vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].row.seq < candidates[j].row.seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]driven.Hit, 0, k)
	for _, c := range candidates[:k] {
		hits = append(hits, driven.Hit{
			ID:       c.row.id,
			Text:     c.row.text,
			Metadata: c.row.metadata,
			Distance: c.distance,
		})
	}
	return hits, nil
}

// candidate is one scanned row.
type candidate struct {
	seq      int64
	id       string
	text     string
	metadata map[string]any
	vector   []float32
}

// queryCandidates scans records in insertion order, using the
// document_id column as a fast path and applying the remaining filter
// keys against the metadata.
func (s *Store) queryCandidates(ctx context.Context, filter driven.Filter) ([]candidate, error) {
	query := `SELECT seq, id, text, metadata, embedding FROM records`
	var args []any
	if docID, ok := filter["document_id"]; ok {
		query += ` WHERE document_id = ?`
		args = append(args, fmt.Sprintf("%v", docID))
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		var metadataJSON string
		var blob []byte
		if err := rows.Scan(&c.seq, &c.id, &c.text, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &c.metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		if !matches(c.metadata, filter) {
			continue
		}
		c.vector = bytesToFloat32Slice(blob)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating records: %w", domain.ErrStoreUnavailable, err)
	}
	return out, nil
}

// GetByFilter returns all records matching filter.
func (s *Store) GetByFilter(ctx context.Context, filter driven.Filter) ([]driven.Record, error) {
	rows, err := s.queryCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	records := make([]driven.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, driven.Record{
			ID:       row.id,
			Vector:   row.vector,
			Text:     row.text,
			Metadata: row.metadata,
		})
	}
	return records, nil
}

// DeleteByFilter removes all records matching filter.
func (s *Store) DeleteByFilter(ctx context.Context, filter driven.Filter) (int, error) {
	// Resolve matches first so non-column filter keys work too.
	rows, err := s.queryCandidates(ctx, filter)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: beginning transaction: %w", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM records WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("%w: preparing statement: %w", domain.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.id); err != nil {
			return 0, fmt.Errorf("%w: deleting record: %w", domain.ErrStoreUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing transaction: %w", domain.ErrStoreUnavailable, err)
	}
	return len(rows), nil
}

// ListDocuments aggregates records by document_id.
func (s *Store) ListDocuments(ctx context.Context) ([]driven.DocumentAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id,
		       json_extract(metadata, '$.filename'),
		       json_extract(metadata, '$.file_size'),
		       COUNT(*)
		FROM records
		GROUP BY document_id
		ORDER BY MIN(seq)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying aggregates: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var aggregates []driven.DocumentAggregate //nolint:prealloc // size unknown from query
	for rows.Next() {
		var agg driven.DocumentAggregate
		var filename sql.NullString
		var fileSize sql.NullInt64
		if err := rows.Scan(&agg.DocumentID, &filename, &fileSize, &agg.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning aggregate: %w", err)
		}
		agg.Filename = filename.String
		if agg.Filename == "" {
			agg.Filename = "Unknown"
		}
		agg.FileSize = fileSize.Int64
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating aggregates: %w", domain.ErrStoreUnavailable, err)
	}
	return aggregates, nil
}

// Stats returns collection-wide counters.
func (s *Store) Stats(ctx context.Context) (driven.StoreStats, error) {
	var stats driven.StoreStats
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT document_id) FROM records")
	if err := row.Scan(&stats.TotalChunks, &stats.TotalDocuments); err != nil {
		return driven.StoreStats{}, fmt.Errorf("%w: counting records: %w", domain.ErrStoreUnavailable, err)
	}
	return stats, nil
}

// Reset destroys all records irrevocably.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("%w: resetting collection: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// matches reports whether metadata satisfies every equality predicate
// in filter.
func matches(metadata map[string]any, filter driven.Filter) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

// coerceMetadata copies metadata, coercing non-scalar values to strings
// and stamping the record's own ID under "record_id".
func coerceMetadata(metadata map[string]any, recordID string) map[string]any {
	coerced := make(map[string]any, len(metadata)+1)
	for key, value := range metadata {
		switch value.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			coerced[key] = value
		default:
			coerced[key] = fmt.Sprintf("%v", value)
		}
	}
	coerced["record_id"] = recordID
	return coerced
}

// float32SliceToBytes encodes a vector as little-endian float32 bytes.
func float32SliceToBytes(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// bytesToFloat32Slice decodes a little-endian float32 BLOB.
func bytesToFloat32Slice(buf []byte) []float32 {
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector
}

// cosineDistance returns 1 - cosine similarity, in [0, 2].
// Zero vectors are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
