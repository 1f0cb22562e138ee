package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/voxdoc/voxdoc/internal/models"
)

// CheckpointConfig configures the optional Postgres checkpoint store.
type CheckpointConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// CheckpointStore serializes a session snapshot to pgvector tables and
// reloads it with an identical document-to-chunk mapping. The in-memory
// session remains the source of truth; this is durability only.
type CheckpointStore struct {
	config CheckpointConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(config CheckpointConfig) (*CheckpointStore, error) {
	if config.TableName == "" {
		config.TableName = "voxdoc"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	cs := &CheckpointStore{config: config, pool: pool}
	if err := cs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	return cs, nil
}

func (cs *CheckpointStore) initialize() error {
	ctx := context.Background()

	if _, err := cs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createDocs := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_documents (
			id TEXT PRIMARY KEY,
			ord INTEGER NOT NULL,
			name TEXT NOT NULL,
			format TEXT,
			path TEXT,
			text_len INTEGER,
			ingested_at TIMESTAMPTZ,
			cursor_page INTEGER,
			chunk_count INTEGER NOT NULL,
			pages JSONB
		)`, cs.config.TableName)
	if _, err := cs.pool.Exec(ctx, createDocs); err != nil {
		return fmt.Errorf("failed to create documents table: %v", err)
	}

	createChunks := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_chunks (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			page INTEGER,
			start_off INTEGER,
			end_off INTEGER,
			content TEXT,
			embedding vector(%d)
		)`, cs.config.TableName, cs.config.VectorDim)
	if _, err := cs.pool.Exec(ctx, createChunks); err != nil {
		return fmt.Errorf("failed to create chunks table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_chunks_doc_idx
		ON %s_chunks (doc_id)`,
		cs.config.TableName, cs.config.TableName)
	if _, err := cs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Save replaces the checkpoint with the given snapshot in one
// transaction.
func (cs *CheckpointStore) Save(ctx context.Context, snap models.Snapshot) error {
	tx, err := cs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s_chunks", cs.config.TableName)); err != nil {
		return fmt.Errorf("failed to clear chunks: %v", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s_documents", cs.config.TableName)); err != nil {
		return fmt.Errorf("failed to clear documents: %v", err)
	}

	insertDoc := fmt.Sprintf(`
		INSERT INTO %s_documents (id, ord, name, format, path, text_len, ingested_at, cursor_page, chunk_count, pages)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		cs.config.TableName)
	insertChunk := fmt.Sprintf(`
		INSERT INTO %s_chunks (id, doc_id, seq, page, start_off, end_off, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cs.config.TableName)

	for ord, doc := range snap.Documents {
		pages, err := json.Marshal(doc.Pages)
		if err != nil {
			return fmt.Errorf("failed to encode pages for %s: %v", doc.ID, err)
		}
		_, err = tx.Exec(ctx, insertDoc,
			doc.ID, ord, doc.Name, doc.Format, doc.Path,
			doc.TextLen, doc.IngestedAt, doc.Cursor, len(doc.Chunks), pages)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %v", doc.ID, err)
		}

		for _, chunk := range doc.Chunks {
			vec, ok := snap.Vectors[chunk.ID]
			if !ok {
				return fmt.Errorf("snapshot is missing the vector for chunk %s", chunk.ID)
			}
			_, err = tx.Exec(ctx, insertChunk,
				chunk.ID, chunk.DocID, chunk.Seq, chunk.Page,
				chunk.Start, chunk.End, chunk.Text, pgvector.NewVector(vec))
			if err != nil {
				return fmt.Errorf("failed to insert chunk %s: %v", chunk.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// Load reads the checkpoint back. Every document is verified against the
// chunk count recorded at save time before the snapshot is returned.
func (cs *CheckpointStore) Load(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{
		Dimension: cs.config.VectorDim,
		Vectors:   make(map[string][]float32),
	}

	docQuery := fmt.Sprintf(`
		SELECT id, name, format, path, text_len, ingested_at, cursor_page, chunk_count, pages
		FROM %s_documents
		ORDER BY ord`, cs.config.TableName)
	rows, err := cs.pool.Query(ctx, docQuery)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to query documents: %v", err)
	}
	defer rows.Close()

	savedCounts := make(map[string]int)
	for rows.Next() {
		var doc models.Document
		var ingestedAt time.Time
		var chunkCount int
		var pages []byte
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Format, &doc.Path,
			&doc.TextLen, &ingestedAt, &doc.Cursor, &chunkCount, &pages); err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to scan document row: %v", err)
		}
		doc.IngestedAt = ingestedAt
		if len(pages) > 0 {
			if err := json.Unmarshal(pages, &doc.Pages); err != nil {
				return models.Snapshot{}, fmt.Errorf("failed to decode pages for %s: %v", doc.ID, err)
			}
		}
		savedCounts[doc.ID] = chunkCount
		snap.Documents = append(snap.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read document rows: %v", err)
	}

	chunkQuery := fmt.Sprintf(`
		SELECT id, doc_id, seq, page, start_off, end_off, content, embedding
		FROM %s_chunks
		ORDER BY doc_id, seq`, cs.config.TableName)
	chunkRows, err := cs.pool.Query(ctx, chunkQuery)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer chunkRows.Close()

	byDoc := make(map[string][]models.Chunk)
	for chunkRows.Next() {
		var chunk models.Chunk
		var embedding pgvector.Vector
		if err := chunkRows.Scan(&chunk.ID, &chunk.DocID, &chunk.Seq, &chunk.Page,
			&chunk.Start, &chunk.End, &chunk.Text, &embedding); err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to scan chunk row: %v", err)
		}
		byDoc[chunk.DocID] = append(byDoc[chunk.DocID], chunk)
		snap.Vectors[chunk.ID] = embedding.Slice()
	}
	if err := chunkRows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read chunk rows: %v", err)
	}

	for i := range snap.Documents {
		doc := &snap.Documents[i]
		doc.Chunks = byDoc[doc.ID]
		if len(doc.Chunks) != savedCounts[doc.ID] {
			return models.Snapshot{}, fmt.Errorf("document %s reloaded with %d chunks, saved %d",
				doc.ID, len(doc.Chunks), savedCounts[doc.ID])
		}
	}

	return snap, nil
}

func (cs *CheckpointStore) Close() {
	if cs.pool != nil {
		cs.pool.Close()
	}
}
